package digidoc

import "time"

// Profile is the signature strength level carried by a signature.
type Profile string

const (
	ProfileBBES  Profile = "B_BES"
	ProfileBEPES Profile = "B_EPES"
	ProfileT     Profile = "T"
	ProfileLT    Profile = "LT"
	ProfileLTTM  Profile = "LT_TM"
	ProfileLTA   Profile = "LTA"
)

// DataFile is one payload file inside a container.
type DataFile struct {
	Name     string
	Content  []byte
	MimeType string
}

// Signature describes one signature embedded in a container.
type Signature struct {
	ID                string
	Profile           Profile
	SignerInfo        string
	SignedAt          time.Time
	Value             []byte
	ArchiveTimestamps [][]byte
}

// Info is the parsed view of a container used by read operations.
type Info struct {
	DataFiles  []DataFile
	Signatures []Signature
}
