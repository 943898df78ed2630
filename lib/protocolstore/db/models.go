package db

type ScrapeRun struct {
	ID   string
	Time int64
}

type Protocol struct {
	ID            int64
	RunID         string
	Position      int64
	Number        string
	CarNumber     string
	Date          int64
	ViolationCode string
	Amount        int64
	Status        ProtocolStatus
}

type Medium struct {
	ProtocolID int64
	Position   int64
	Kind       MediaKind
	Blob       []byte
}
