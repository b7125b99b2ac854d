package auxiliary

import (
	"context"
	"errors"
	"testing"
)

type fakeRunner struct {
	status       string
	runCodeErr   error
	writeErr     error
	writtenPaths []string
}

func (f *fakeRunner) RunCode(ctx context.Context, command string) (string, error) {
	if f.runCodeErr != nil {
		return "", f.runCodeErr
	}
	return f.status, nil
}

func (f *fakeRunner) WriteScript(ctx context.Context, path, source, scriptType string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writtenPaths = append(f.writtenPaths, path)
	return nil
}

func TestEnsureInstalledSkipsWhenBothPresent(t *testing.T) {
	r := &fakeRunner{status: "true,true"}
	result, err := EnsureInstalled(context.Background(), r)
	if err != nil {
		t.Fatalf("EnsureInstalled: %v", err)
	}
	if result.Installed {
		t.Fatalf("expected no install, got %+v", result)
	}
	if len(r.writtenPaths) != 0 {
		t.Fatalf("expected no write_script calls, got %v", r.writtenPaths)
	}
}

func TestEnsureInstalledWritesMissingScripts(t *testing.T) {
	r := &fakeRunner{status: "false,false"}
	result, err := EnsureInstalled(context.Background(), r)
	if err != nil {
		t.Fatalf("EnsureInstalled: %v", err)
	}
	if !result.Installed || len(result.InstalledWhat) != 2 {
		t.Fatalf("expected both scripts installed, got %+v", result)
	}
	if len(r.writtenPaths) != 2 {
		t.Fatalf("expected 2 write_script calls, got %v", r.writtenPaths)
	}
}

func TestEnsureInstalledWritesOnlyMissingOne(t *testing.T) {
	r := &fakeRunner{status: "true,false"}
	result, err := EnsureInstalled(context.Background(), r)
	if err != nil {
		t.Fatalf("EnsureInstalled: %v", err)
	}
	if len(result.InstalledWhat) != 1 || result.InstalledWhat[0] != "MCPInputHandler (StarterPlayerScripts)" {
		t.Fatalf("expected only handler installed, got %+v", result)
	}
}

func TestEnsureInstalledPropagatesProbeFailure(t *testing.T) {
	r := &fakeRunner{runCodeErr: errors.New("timeout")}
	_, err := EnsureInstalled(context.Background(), r)
	if err == nil {
		t.Fatal("expected error from failed probe")
	}
}

func TestEnsureInstalledPropagatesWriteFailure(t *testing.T) {
	r := &fakeRunner{status: "false,false", writeErr: errors.New("write failed")}
	_, err := EnsureInstalled(context.Background(), r)
	if err == nil {
		t.Fatal("expected error from failed write_script")
	}
}
