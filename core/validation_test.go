package core

import (
	"errors"
	"testing"
)

func TestValidateChunking(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr error
	}{
		{
			name:    "valid config",
			size:    1000,
			overlap: 100,
			wantErr: nil,
		},
		{
			name:    "zero overlap",
			size:    4,
			overlap: 0,
			wantErr: nil,
		},
		{
			name:    "overlap just below size",
			size:    4,
			overlap: 3,
			wantErr: nil,
		},
		{
			name:    "zero size",
			size:    0,
			overlap: 0,
			wantErr: ErrInvalidChunkConfig,
		},
		{
			name:    "negative size",
			size:    -5,
			overlap: 0,
			wantErr: ErrInvalidChunkConfig,
		},
		{
			name:    "negative overlap",
			size:    100,
			overlap: -1,
			wantErr: ErrInvalidChunkConfig,
		},
		{
			name:    "overlap equals size",
			size:    100,
			overlap: 100,
			wantErr: ErrInvalidChunkConfig,
		},
		{
			name:    "overlap exceeds size",
			size:    100,
			overlap: 150,
			wantErr: ErrInvalidChunkConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunking(tt.size, tt.overlap)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunking() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateChunking() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunking() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Source:  "repo/readme.md",
				Content: "Hello world",
			},
			wantErr: nil,
		},
		{
			name: "empty content is valid",
			doc: &Document{
				Source:  "repo/empty.txt",
				Content: "",
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty source",
			doc: &Document{
				Source:  "",
				Content: "orphan content",
			},
			wantErr: ErrEmptySource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateDocument() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
