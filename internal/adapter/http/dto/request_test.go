package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
)

func TestCreateEnvelopeRequest_DecodesStringAndNumberAmounts(t *testing.T) {
	for _, body := range []string{
		`{"chat_id":-100,"sender_id":7,"asset":"USDT","total":"12.50","shares":5,"note":"gm"}`,
		`{"chat_id":-100,"sender_id":7,"asset":"USDT","total":12.5,"shares":5,"note":"gm"}`,
	} {
		var req CreateEnvelopeRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}

		got := req.ToUseCaseInput()
		if got.ChatID != -100 || got.SenderID != 7 || got.Asset != "USDT" || got.Shares != 5 || got.Note != "gm" {
			t.Fatalf("unexpected input: %+v", got)
		}
		if !got.Total.Equal(decimal.RequireFromString("12.5")) {
			t.Fatalf("expected total 12.5, got %s", got.Total)
		}
		if got.MinUnit != nil {
			t.Fatalf("expected no min unit override, got %s", got.MinUnit)
		}
	}
}

func TestCreateEnvelopeRequest_MinUnitOverride(t *testing.T) {
	var req CreateEnvelopeRequest
	if err := json.Unmarshal([]byte(`{"asset":"USDT","total":"1","shares":2,"min_unit":"0.5"}`), &req); err != nil {
		t.Fatal(err)
	}

	got := req.ToUseCaseInput()
	if got.MinUnit == nil || !got.MinUnit.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected min unit 0.5, got %v", got.MinUnit)
	}
}

func TestActorRequest_Validate(t *testing.T) {
	tests := []struct {
		userID  int64
		wantErr bool
	}{
		{userID: 42, wantErr: false},
		{userID: 0, wantErr: true},
		{userID: -5, wantErr: true},
	}

	for _, tt := range tests {
		err := (&ActorRequest{UserID: tt.userID}).Validate()
		if tt.wantErr != (err != nil) {
			t.Fatalf("user %d: unexpected error %v", tt.userID, err)
		}
		if err != nil && !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}

func TestAdjustmentRequest_ToUseCaseInput(t *testing.T) {
	req := &AdjustmentRequest{UserID: 3, Asset: "POINT", Amount: decimal.NewFromInt(-4), Note: "chargeback"}

	got := req.ToUseCaseInput()
	if got.UserID != 3 || got.Asset != "POINT" || !got.Amount.Equal(decimal.NewFromInt(-4)) || got.Note != "chargeback" {
		t.Fatalf("unexpected input: %+v", got)
	}
}
