package tasks

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name    string
		query   string
		want    func(t *testing.T, f Filters)
		wantErr bool
	}{
		{
			name:  "no filters",
			query: "",
			want: func(t *testing.T, f Filters) {
				assert.Nil(t, f.Status)
				assert.Nil(t, f.Priority)
				assert.False(t, f.Overdue)
				assert.False(t, f.DueSoon)
			},
		},
		{
			name:  "status and priority",
			query: "status=in_progress&priority=high",
			want: func(t *testing.T, f Filters) {
				require.NotNil(t, f.Status)
				assert.Equal(t, StatusInProgress, *f.Status)
				require.NotNil(t, f.Priority)
				assert.Equal(t, PriorityHigh, *f.Priority)
			},
		},
		{
			name:  "assigned_to",
			query: "assigned_to=" + userID.String(),
			want: func(t *testing.T, f Filters) {
				require.NotNil(t, f.AssignedTo)
				assert.Equal(t, userID, *f.AssignedTo)
			},
		},
		{
			name:  "overdue and due_soon flags",
			query: "overdue=true&due_soon=true",
			want: func(t *testing.T, f Filters) {
				assert.True(t, f.Overdue)
				assert.True(t, f.DueSoon)
			},
		},
		{
			name:    "invalid status",
			query:   "status=done",
			wantErr: true,
		},
		{
			name:    "invalid priority",
			query:   "priority=urgent",
			wantErr: true,
		},
		{
			name:    "malformed assigned_to",
			query:   "assigned_to=42",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/my-tasks?"+tt.query, nil)
			filters, err := parseFilters(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.want(t, filters)
		})
	}
}
