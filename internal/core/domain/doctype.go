package domain

// DocType identifies the Nextcloud application a document comes from.
// Search algorithms never enumerate these; new types only require a new
// source handler on the ingestion side.
type DocType string

// Known document types. The search path discovers types dynamically by
// sampling the index, so this list is informational, not authoritative.
const (
	DocTypeNote     DocType = "note"
	DocTypeFile     DocType = "file"
	DocTypeCalendar DocType = "calendar"
	DocTypeDeckCard DocType = "deck_card"
	DocTypeContact  DocType = "contact"
	DocTypeFeedItem DocType = "feed_item"
)

// DocTypeAll is the zero value, meaning "search all indexed types".
const DocTypeAll DocType = ""

// String returns the string form of the type.
func (t DocType) String() string {
	return string(t)
}
