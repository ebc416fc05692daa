package models

import (
	"testing"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

func TestRequestDefaults(t *testing.T) {
	v := validator.New()

	rep := &ReportRequest{Symbol: "AAPL"}
	if err := defaults.Set(rep); err != nil {
		t.Fatalf("set report defaults: %v", err)
	}
	if len(rep.TFs) != 1 || rep.TFs[0] != "1d" {
		t.Fatalf("expected tfs default [1d], got %v", rep.TFs)
	}
	if err := v.Struct(rep); err != nil {
		t.Fatalf("defaulted report request should validate: %v", err)
	}

	lv := &LevelsRequest{Symbol: "AAPL"}
	if err := defaults.Set(lv); err != nil {
		t.Fatalf("set levels defaults: %v", err)
	}
	if len(lv.TFs) != 1 || lv.TFs[0] != "1d" {
		t.Fatalf("expected tfs default [1d], got %v", lv.TFs)
	}

	bars := &BarsRequest{Symbol: "AAPL"}
	if err := defaults.Set(bars); err != nil {
		t.Fatalf("set bars defaults: %v", err)
	}
	if bars.N != 300 || bars.TF != "1d" {
		t.Fatalf("unexpected bars defaults n=%d tf=%s", bars.N, bars.TF)
	}
}
