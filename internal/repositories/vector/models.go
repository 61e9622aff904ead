package vector

// Point is one record ready for upsert: the raw primary key, its embedding,
// and the payload stored alongside the vector. The primary key is also kept
// in the payload so it survives the deterministic point ID derivation.
type Point struct {
	Key     string
	Vector  []float32
	Payload map[string]interface{}
}

type CollectionInfoResponse struct {
	Status              string
	IndexedVectorsCount uint64
	PointsCount         uint64
	IndexedFields       []string
}
