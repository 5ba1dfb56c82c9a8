package domain

// Chunk is the unit of embedding and retrieval: a bounded segment of source
// text plus the metadata needed to attribute and delete it. OwnerID and
// DocumentID are zero for crawled documentation, which is only removable by
// clearing the whole index.
type Chunk struct {
	Text        string `json:"text"`
	SourceTitle string `json:"source_title"`
	SourceURL   string `json:"source_url,omitempty"`
	OwnerID     int64  `json:"owner_id,omitempty"`
	DocumentID  int64  `json:"document_id,omitempty"`
	Index       int    `json:"chunk_index"`
}

// RetrievedChunk is a Chunk as it comes back from the vector index, ranked
// by similarity.
type RetrievedChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// MetadataFilter is an explicit conjunction of equality constraints on
// indexed chunk metadata. Every condition must match; conditions are never
// merged or collapsed into each other.
type MetadataFilter struct {
	Conditions []MetadataCondition
}

type MetadataCondition struct {
	Field string
	Value int64
}

func DocumentOwnerFilter(ownerID, documentID int64) MetadataFilter {
	return MetadataFilter{
		Conditions: []MetadataCondition{
			{Field: "document_id", Value: documentID},
			{Field: "owner_id", Value: ownerID},
		},
	}
}
