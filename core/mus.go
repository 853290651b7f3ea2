package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the storage layer. Timestamps are
// encoded as Unix microseconds with 0 reserved for the zero time, so
// "not yet started/completed" survives a round trip.

var float32SliceMUS = ord.NewSliceSer[float32](varint.Float32)

func marshalTime(t time.Time, bs []byte) int {
	if t.IsZero() {
		return varint.Int64.Marshal(0, bs)
	}
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	if t.IsZero() {
		return varint.Int64.Size(0)
	}
	return varint.Int64.Size(t.UnixMicro())
}

type idMUS struct{}

// IDMUS serializes ID values.
var IDMUS = idMUS{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type documentMUS struct{}

// DocumentMUS serializes Document records.
var DocumentMUS = documentMUS{}

func (documentMUS) Marshal(doc Document, bs []byte) (n int) {
	n = IDMUS.Marshal(doc.Id, bs)
	n += ord.String.Marshal(doc.DocType, bs[n:])
	n += ord.String.Marshal(doc.Workspace, bs[n:])
	n += marshalTime(doc.CreatedAt, bs[n:])
	n += marshalTime(doc.InsertedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (doc Document, n int, err error) {
	var n1 int
	doc.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	doc.DocType, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.Workspace, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (documentMUS) Size(doc Document) (size int) {
	size = IDMUS.Size(doc.Id)
	size += ord.String.Size(doc.DocType)
	size += ord.String.Size(doc.Workspace)
	size += sizeTime(doc.CreatedAt)
	size += sizeTime(doc.InsertedAt)
	return size
}

type chunkMUS struct{}

// ChunkMUS serializes Chunk records.
var ChunkMUS = chunkMUS{}

func (chunkMUS) Marshal(chunk Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(chunk.Id, bs)
	n += IDMUS.Marshal(chunk.DocumentId, bs[n:])
	n += varint.Int.Marshal(chunk.ChunkIndex, bs[n:])
	n += ord.String.Marshal(chunk.Content, bs[n:])
	n += varint.Int.Marshal(int(chunk.Type), bs[n:])
	n += varint.Float32.Marshal(chunk.SearchWeight, bs[n:])
	n += float32SliceMUS.Marshal(chunk.Vector, bs[n:])
	n += IDMUS.Marshal(chunk.ParentChunkId, bs[n:])
	n += marshalTime(chunk.InsertedAt, bs[n:])
	n += marshalTime(chunk.UpdatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (chunk Chunk, n int, err error) {
	var n1 int
	chunk.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	chunk.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	chunk.ChunkIndex, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	chunk.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var chunkType int
	chunkType, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	chunk.Type = ChunkType(chunkType)
	chunk.SearchWeight, n1, err = varint.Float32.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	chunk.Vector, n1, err = float32SliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	chunk.ParentChunkId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	chunk.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	chunk.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (chunkMUS) Size(chunk Chunk) (size int) {
	size = IDMUS.Size(chunk.Id)
	size += IDMUS.Size(chunk.DocumentId)
	size += varint.Int.Size(chunk.ChunkIndex)
	size += ord.String.Size(chunk.Content)
	size += varint.Int.Size(int(chunk.Type))
	size += varint.Float32.Size(chunk.SearchWeight)
	size += float32SliceMUS.Size(chunk.Vector)
	size += IDMUS.Size(chunk.ParentChunkId)
	size += sizeTime(chunk.InsertedAt)
	size += sizeTime(chunk.UpdatedAt)
	return size
}

type indexTaskMUS struct{}

// IndexTaskMUS serializes IndexTask records.
var IndexTaskMUS = indexTaskMUS{}

func (indexTaskMUS) Marshal(task IndexTask, bs []byte) (n int) {
	n = IDMUS.Marshal(task.Id, bs)
	n += IDMUS.Marshal(task.DocumentId, bs[n:])
	n += varint.Int.Marshal(int(task.Status), bs[n:])
	n += varint.Int.Marshal(task.Priority, bs[n:])
	n += varint.Int.Marshal(task.AttemptCount, bs[n:])
	n += varint.Int.Marshal(task.MaxAttempts, bs[n:])
	n += ord.String.Marshal(task.Reason, bs[n:])
	n += ord.String.Marshal(task.LastError, bs[n:])
	n += ord.String.Marshal(task.WorkerId, bs[n:])
	n += marshalTime(task.CreatedAt, bs[n:])
	n += marshalTime(task.StartedAt, bs[n:])
	n += marshalTime(task.CompletedAt, bs[n:])
	return n
}

func (indexTaskMUS) Unmarshal(bs []byte) (task IndexTask, n int, err error) {
	var n1 int
	task.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	task.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var status int
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.Status = TaskStatus(status)
	task.Priority, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.AttemptCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.MaxAttempts, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.Reason, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.LastError, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.WorkerId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.StartedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	task.CompletedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (indexTaskMUS) Size(task IndexTask) (size int) {
	size = IDMUS.Size(task.Id)
	size += IDMUS.Size(task.DocumentId)
	size += varint.Int.Size(int(task.Status))
	size += varint.Int.Size(task.Priority)
	size += varint.Int.Size(task.AttemptCount)
	size += varint.Int.Size(task.MaxAttempts)
	size += ord.String.Size(task.Reason)
	size += ord.String.Size(task.LastError)
	size += ord.String.Size(task.WorkerId)
	size += sizeTime(task.CreatedAt)
	size += sizeTime(task.StartedAt)
	size += sizeTime(task.CompletedAt)
	return size
}
