package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// CollectionMemoryItems is the single collection backing every memory
// tier; projects are isolated by partition, levels by a filter field.
const CollectionMemoryItems = "memory_items"

// Schema builds the memory_items collection schema for the given vector
// dimension.
func Schema(dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionMemoryItems,
		Description:    "Layered memory item embeddings",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "vector",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dim)},
			},
			{
				Name:       "project_id",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "level",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "32"},
			},
		},
	}
}
