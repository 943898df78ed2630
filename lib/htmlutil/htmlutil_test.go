package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestTextNodes(t *testing.T) {
	doc := parse(t, `<span class="col">
		<b>0001122</b>
		<br/>
		AA-001-BB
		<i></i>
	</span>`)

	nodes := TextNodes(doc.Find("span.col").Get(0))
	require.Equal(t, []string{"0001122", "AA-001-BB"}, nodes)
}

func TestFirstText(t *testing.T) {
	doc := parse(t, `<div>
		<span id="a">
			<em>  </em>
			<strong>15.50GEL</strong> trailing
		</span>
		<span id="b"><i></i></span>
	</div>`)

	text, ok := FirstText(doc.Find("#a").Get(0))
	require.True(t, ok)
	require.Equal(t, "15.50GEL", text)

	_, ok = FirstText(doc.Find("#b").Get(0))
	require.False(t, ok)

	_, ok = FirstText(nil)
	require.False(t, ok)

	raw, ok := FirstTextNode(parse(t, `<p><i>15.55 GEL </i></p>`).Find("p").Get(0))
	require.True(t, ok)
	require.Equal(t, "15.55 GEL ", raw)
}

func TestGetAnchors(t *testing.T) {
	doc := parse(t, `<div>
		<a href=" protocol.php?id=12 ">  view
			media </a>
		<a href="/img/x.png">image</a>
	</div>`)

	anchors := GetAnchors(doc.Find("a"))
	require.Equal(t, []Anchor{
		{Name: "view media", Href: "protocol.php?id=12"},
		{Name: "image", Href: "/img/x.png"},
	}, anchors)
}
