package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the stored record types. Field order is
// part of the on-disk format and must not change between releases.

// IDMUS serializes IDs as varint-encoded uint64 values.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// ChunkMUS serializes Chunk records.
// Layout: Id, Text, SourcePath, ChunkIndex, Embedding, Metadata.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) int {
	n := IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.SourcePath, bs[n:])
	n += varint.PositiveInt.Marshal(v.ChunkIndex, bs[n:])
	n += varint.PositiveInt.Marshal(len(v.Embedding), bs[n:])
	for _, f := range v.Embedding {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += varint.PositiveInt.Marshal(len(v.Metadata), bs[n:])
	for k, val := range v.Metadata {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(val, bs[n:])
	}
	return n
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if v.SourcePath, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if v.ChunkIndex, m, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	var count int
	if count, m, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if count > 0 {
		v.Embedding = make([]float32, count)
		for i := 0; i < count; i++ {
			if v.Embedding[i], m, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += m
		}
	}
	if count, m, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if count > 0 {
		v.Metadata = make(map[string]string, count)
		for i := 0; i < count; i++ {
			var key, val string
			if key, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += m
			if val, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += m
			v.Metadata[key] = val
		}
	}
	return
}

func (s chunkMUS) Size(v Chunk) int {
	size := IDMUS.Size(v.Id)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.SourcePath)
	size += varint.PositiveInt.Size(v.ChunkIndex)
	size += varint.PositiveInt.Size(len(v.Embedding))
	for _, f := range v.Embedding {
		size += raw.Float32.Size(f)
	}
	size += varint.PositiveInt.Size(len(v.Metadata))
	for k, val := range v.Metadata {
		size += ord.String.Size(k)
		size += ord.String.Size(val)
	}
	return size
}
