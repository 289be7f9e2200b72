package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitWriter_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", "json")
	defer Init("info", "text")

	Info("skipped")
	Warn("shown", "player_id", "p1")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "skipped") {
		t.Fatalf("info не должен выводиться на уровне warn: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("ожидался JSON, получено %q: %v", out, err)
	}
	if rec["msg"] != "shown" || rec["player_id"] != "p1" {
		t.Fatalf("неверная запись: %v", rec)
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", "text")
	defer Init("info", "text")

	ctx := NewContext(context.Background(), "player_id", "abc")
	WithContext(ctx).Info("move")

	if !strings.Contains(buf.String(), "player_id=abc") {
		t.Fatalf("атрибут из контекста потерян: %s", buf.String())
	}
	if WithContext(context.Background()) != Get() {
		t.Fatalf("без логгера в контексте должен возвращаться глобальный")
	}
}

func TestWith_KeepsAttrs(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info", "text")
	defer Init("info", "text")

	l := With("player_id", "p7")
	l.Info("game finished", "status", "won")

	out := buf.String()
	if !strings.Contains(out, "player_id=p7") || !strings.Contains(out, "status=won") {
		t.Fatalf("атрибуты логгера потеряны: %s", out)
	}
}
