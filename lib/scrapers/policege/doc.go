// Package policege scrapes the protocols (administrative violation records)
// of a single account from the police video portal, along with the photos
// and audio attached to them.
//
// The portal is read-only from our point of view, each method is independent
// of the others and its output depends only on its input EXCEPT for the login
// state, which is an implied input for every request.
//
// Every scraping method follows the same structure:
//  1. make assertions on input validity.
//  2. transform input into an HTTP request (method, headers, body).
//  3. make the request.
//  4. make assertions on the response (expected url, expected markup, ...).
//  5. transform the response into output structures through the Schema.
//
// Scraper is what guides the program through the above to produce fully
// populated protocols.
package policege
