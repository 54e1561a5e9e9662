// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/services"
)

// MockExportService is a scripted test double for [services.ExportService].
//
// Statuses holds, per project, the sequence returned by successive ExportStatus
// calls; the last entry repeats once the sequence is used up. Projects without
// a script report "none". Archives without an entry get a generated archive
// named "<id>_export.tar.gz".
type MockExportService struct {
	Projects    []services.RemoteProject
	ListErr     error
	Statuses    map[int64][]models.ExportStatus
	StatusErr   map[int64]error
	ScheduleErr map[int64]error
	Archives    map[int64]MockArchive
	DownloadErr map[int64]error

	// OnStatus runs before every ExportStatus call.
	OnStatus func(projectID int64)

	mu            sync.Mutex
	statusCalls   map[int64]int
	scheduleCalls map[int64]int
	downloadCalls map[int64]int
	listCalls     int
}

// MockArchive is the payload returned by [MockExportService.DownloadExport].
//
// A Broken archive has a body whose reads fail, like a connection dropped mid-transfer.
type MockArchive struct {
	Token  string
	Data   []byte
	Broken bool
}

// DefaultArchive returns the archive the mock serves for id when none is scripted.
func DefaultArchive(id int64) MockArchive {
	name := fmt.Sprintf("%d_export.tar.gz", id)
	return MockArchive{
		Token: fmt.Sprintf(`%s"; filename*=UTF-8''%s`, name, name),
		Data:  []byte(fmt.Sprintf("archive-%d", id)),
	}
}

func (m *MockExportService) Name() string { return "mock" }

func (m *MockExportService) ListProjects(ctx context.Context) ([]services.RemoteProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Projects, nil
}

func (m *MockExportService) ExportStatus(ctx context.Context, projectID int64) (models.ExportStatus, error) {
	if m.OnStatus != nil {
		m.OnStatus(projectID)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.statusCalls == nil {
		m.statusCalls = map[int64]int{}
	}
	call := m.statusCalls[projectID]
	m.statusCalls[projectID]++

	if err := m.StatusErr[projectID]; err != nil {
		return "", err
	}

	script := m.Statuses[projectID]
	if len(script) == 0 {
		return models.ExportNone, nil
	}
	return script[min(call, len(script)-1)], nil
}

func (m *MockExportService) ScheduleExport(ctx context.Context, projectID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduleCalls == nil {
		m.scheduleCalls = map[int64]int{}
	}
	m.scheduleCalls[projectID]++
	return m.ScheduleErr[projectID]
}

func (m *MockExportService) DownloadExport(ctx context.Context, projectID int64) (*services.Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.downloadCalls == nil {
		m.downloadCalls = map[int64]int{}
	}
	m.downloadCalls[projectID]++

	if err := m.DownloadErr[projectID]; err != nil {
		return nil, err
	}

	archive, ok := m.Archives[projectID]
	if !ok {
		archive = DefaultArchive(projectID)
	}
	var body io.ReadCloser = io.NopCloser(bytes.NewReader(archive.Data))
	if archive.Broken {
		body = &FCloser{}
	}
	return &services.Archive{
		FilenameToken: archive.Token,
		Body:          body,
		Size:          int64(len(archive.Data)),
	}, nil
}

// StatusCalls returns how many times ExportStatus was called for projectID.
func (m *MockExportService) StatusCalls(projectID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls[projectID]
}

// ScheduleCalls returns how many times ScheduleExport was called for projectID.
func (m *MockExportService) ScheduleCalls(projectID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduleCalls[projectID]
}

// DownloadCalls returns how many times DownloadExport was called for projectID.
func (m *MockExportService) DownloadCalls(projectID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.downloadCalls[projectID]
}

// RemoteCalls returns the number of calls made for projectID across all operations.
func (m *MockExportService) RemoteCalls(projectID int64) int {
	return m.StatusCalls(projectID) + m.ScheduleCalls(projectID) + m.DownloadCalls(projectID)
}

// ListCalls returns how many times ListProjects was called.
func (m *MockExportService) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
