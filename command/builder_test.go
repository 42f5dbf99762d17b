package command

import (
	"context"
	"testing"
	"time"
)

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid path", "/path/to/file.txt", false},
		{"relative path", "relative/path.txt", false},
		{"directory traversal", "../etc/passwd", true},
		{"command injection semicolon", "file.txt; rm -rf /", true},
		{"command injection pipe", "file.txt | cat", true},
		{"command injection dollar", "$(whoami)", true},
		{"command injection backtick", "`whoami`", true},
		{"empty path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFileName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGitRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"branch name", "main", false},
		{"remote ref", "origin/feature/thing", false},
		{"tag with dots", "v1.2.3", false},
		{"empty ref", "", true},
		{"shell metacharacters", "main; rm -rf /", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGitRef(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateGitRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	sb := NewSafeBuilder()

	t.Run("empty command name", func(t *testing.T) {
		_, err := sb.Build(context.Background(), "")
		if err == nil {
			t.Error("Build should reject an empty command name")
		}
	})

	t.Run("builds runnable command", func(t *testing.T) {
		cmd, err := sb.Build(context.Background(), "git", "status")
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		execCmd := cmd.Exec()
		if execCmd == nil {
			t.Fatal("Exec returned nil command")
		}
	})

	t.Run("timeout is capped", func(t *testing.T) {
		cmd, err := sb.Build(context.Background(), "git")
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		cmd = cmd.WithTimeout(24 * time.Hour)
		if cmd.timeout != MaxTimeout {
			t.Errorf("expected timeout capped at %v, got %v", MaxTimeout, cmd.timeout)
		}
	})
}

func TestValidateUnknownType(t *testing.T) {
	sb := NewSafeBuilder()
	if err := sb.Validate("unknown", "value"); err == nil {
		t.Error("Validate should fail for unknown argument types")
	}
}
