package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncOperation_Validate(t *testing.T) {
	now := time.Now()

	base := func(opType OperationType) SyncOperation {
		return SyncOperation{
			ID:         "op-1",
			Type:       opType,
			EntityType: EntityNote,
			ClientID:   "device-a",
			Timestamp:  now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*SyncOperation)
		opType  OperationType
		wantErr error
	}{
		{
			name:   "Create/Valid",
			opType: OperationCreate,
			mutate: func(op *SyncOperation) {
				op.TempID = "tmp-1"
				op.Data = map[string]any{"title": "hello"}
			},
		},
		{
			name:    "Create/NoData",
			opType:  OperationCreate,
			mutate:  func(op *SyncOperation) { op.TempID = "tmp-1" },
			wantErr: ErrCreateDataMissing,
		},
		{
			name:    "Create/NoTempID",
			opType:  OperationCreate,
			mutate:  func(op *SyncOperation) { op.Data = map[string]any{"title": "x"} },
			wantErr: ErrCreateTempIDMissing,
		},
		{
			name:   "Update/Valid",
			opType: OperationUpdate,
			mutate: func(op *SyncOperation) {
				op.EntityID = "n-1"
				op.BaseVersion = 3
				op.Changes = map[string]any{"title": "edited"}
			},
		},
		{
			name:    "Update/NoEntityID",
			opType:  OperationUpdate,
			mutate:  func(op *SyncOperation) { op.Changes = map[string]any{"title": "x"} },
			wantErr: ErrEntityIDMissing,
		},
		{
			name:    "Update/NoChanges",
			opType:  OperationUpdate,
			mutate:  func(op *SyncOperation) { op.EntityID = "n-1" },
			wantErr: ErrUpdateChangesMissing,
		},
		{
			name:   "Delete/Valid",
			opType: OperationDelete,
			mutate: func(op *SyncOperation) {
				op.EntityID = "n-1"
				op.ExpectedVersion = 4
			},
		},
		{
			name:    "Delete/NoExpectedVersion",
			opType:  OperationDelete,
			mutate:  func(op *SyncOperation) { op.EntityID = "n-1" },
			wantErr: ErrExpectedVersionMissing,
		},
		{
			name:   "Read/AlwaysValid",
			opType: OperationRead,
			mutate: func(op *SyncOperation) {},
		},
		{
			name:    "UnknownType",
			opType:  OperationType("upsert"),
			mutate:  func(op *SyncOperation) {},
			wantErr: ErrUnknownOperationType,
		},
		{
			name:    "MissingID",
			opType:  OperationRead,
			mutate:  func(op *SyncOperation) { op.ID = "" },
			wantErr: ErrOperationIDMissing,
		},
		{
			name:    "BadEntityType",
			opType:  OperationRead,
			mutate:  func(op *SyncOperation) { op.EntityType = "attachment" },
			wantErr: ErrUnknownEntityType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := base(tt.opType)
			tt.mutate(&op)

			err := op.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSyncOperation_ChangedFields(t *testing.T) {
	op := SyncOperation{
		Type:    OperationUpdate,
		Changes: map[string]any{"title": "a", "body": "b"},
	}
	assert.ElementsMatch(t, []string{"title", "body"}, op.ChangedFields())

	assert.Nil(t, SyncOperation{Type: OperationCreate}.ChangedFields())
	assert.Nil(t, SyncOperation{Type: OperationDelete}.ChangedFields())
}

func TestSyncOperation_Mutates(t *testing.T) {
	assert.True(t, SyncOperation{Type: OperationCreate}.Mutates())
	assert.True(t, SyncOperation{Type: OperationUpdate}.Mutates())
	assert.True(t, SyncOperation{Type: OperationDelete}.Mutates())
	assert.False(t, SyncOperation{Type: OperationRead}.Mutates())
}
