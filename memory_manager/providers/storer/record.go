package storer

import "time"

type Record struct {
	Id        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
	Distance  float32
	CreatedAt time.Time
}
