package postgres

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"gateway/internal/types"
)

// fakeRow feeds scanMessageRow from an in-memory column list, standing in
// for a pgx.Rows/Row without needing a live connection or a pgx-compatible
// mock driver (none of this project's reference repos carry one; go-sqlmock
// speaks database/sql, not pgx's native pool protocol).
type fakeRow struct {
	cols []any
}

func (f fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch v := d.(type) {
		case *uuid.UUID:
			*v = f.cols[i].(uuid.UUID)
		case **string:
			*v = f.cols[i].(*string)
		case *string:
			*v = f.cols[i].(string)
		case *types.MessageRole:
			*v = f.cols[i].(types.MessageRole)
		case *int64:
			*v = f.cols[i].(int64)
		case *types.MessageInputType:
			*v = f.cols[i].(types.MessageInputType)
		case *types.ScanStatus:
			*v = f.cols[i].(types.ScanStatus)
		case *types.RuleAction:
			*v = f.cols[i].(types.RuleAction)
		case *float64:
			*v = f.cols[i].(float64)
		case *bool:
			*v = f.cols[i].(bool)
		case *[]string:
			*v = f.cols[i].([]string)
		case *[]byte:
			*v = f.cols[i].([]byte)
		}
	}
	return nil
}

func TestScanMessageRow_DecodesEntitiesJSON(t *testing.T) {
	summary := types.EntitiesSummary{
		Entities: []types.Entity{{Type: types.EntityEmail, Text: "a@b.com"}},
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		t.Fatal(err)
	}

	id := uuid.New()
	convID := uuid.New()
	var nilMasked *string
	row := fakeRow{cols: []any{
		id, convID, types.RoleUser, int64(1), types.InputUserInput, (*string)(nil), "hash",
		nilMasked, types.ScanDone, types.ActionAllow, 0.1, false, []string{},
		raw, int64(5),
	}}

	msg, err := scanMessageRow(row)
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != id {
		t.Errorf("got ID %s, want %s", msg.ID, id)
	}
	if len(msg.EntitiesJSON.Entities) != 1 || msg.EntitiesJSON.Entities[0].Text != "a@b.com" {
		t.Errorf("entities_json not decoded correctly: %+v", msg.EntitiesJSON)
	}
}

func TestScanMessageRow_EmptyEntitiesJSONLeavesZeroValue(t *testing.T) {
	id := uuid.New()
	convID := uuid.New()
	var nilMasked *string
	row := fakeRow{cols: []any{
		id, convID, types.RoleAssistant, int64(2), types.InputUserInput, (*string)(nil), "hash",
		nilMasked, types.ScanDone, types.ActionBlock, 0.9, false, []string{},
		[]byte{}, int64(3),
	}}

	msg, err := scanMessageRow(row)
	if err != nil {
		t.Fatal(err)
	}
	if len(msg.EntitiesJSON.Entities) != 0 {
		t.Errorf("expected empty entities for empty entities_json column")
	}
	if !msg.Blocked() {
		t.Error("expected Blocked() true for final_action=block")
	}
}
