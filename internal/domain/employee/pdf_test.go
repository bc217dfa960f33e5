package employee

import (
	"bytes"
	"testing"
	"time"
)

func TestRenderDirectoryPDF(t *testing.T) {
	employees := []Employee{
		{Code: "EMP001", FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Phone: "555", Department: "Ops", Designation: "Lead", JoiningDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Code: "EMP002", FirstName: "José", LastName: "Núñez", Email: "jose@example.com", Phone: "556", Department: "IT", Designation: "Dev", JoiningDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := RenderDirectoryPDF(&buf, employees, time.Now()); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected pdf header, got %q", buf.Bytes()[:8])
	}
}

func TestRenderDirectoryPDFEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderDirectoryPDF(&buf, nil, time.Now()); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected output for empty directory")
	}
}
