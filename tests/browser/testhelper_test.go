package browser_test

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	emailPkg "barreltech/internal/adapters/email"
	web "barreltech/internal/adapters/http"
	"barreltech/internal/adapters/storage"
	enrollmentStore "barreltech/internal/adapters/storage/enrollment"
	"barreltech/internal/application/orchestrators"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL  string
	Handle   *storage.Handle
	Notifier *orchestrators.BestEffortNotifier
	Server   *http.Server
	PW       *playwright.Playwright
	Browser  playwright.Browser
}

// newTestApp wires the real stores over a temp dir and starts an HTTP server.
// The SQLite handle is connected unless connect is false.
func newTestApp(t *testing.T, connect bool) *testApp {
	t.Helper()

	tmpDir := t.TempDir()
	handle := storage.NewHandle(filepath.Join(tmpDir, "enrollments.db"))
	if connect {
		if err := handle.Connect(context.Background()); err != nil {
			t.Fatalf("failed to connect test DB: %v", err)
		}
	}

	mail := orchestrators.NotifyEnrollmentDeps{
		EmailSender: emailPkg.NewNoopSender(),
		From:        "noreply@barreltech.test",
		To:          "info@barreltech.test",
	}
	notifier := orchestrators.NewBestEffortNotifier(mail)

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	mux := web.NewMux(web.Config{
		Port:      port,
		StaticDir: filepath.Join(findProjectRoot(t), "static"),
		Courses:   []string{"Web Development", "Data Science"},
		CSRFKey:   []byte("0123456789abcdef0123456789abcdef"),
	}, web.Deps{
		Backends: web.Backends{
			Mongo:  enrollmentStore.NewMongoStore(nil, "barreltech"),
			SQLite: enrollmentStore.NewSQLiteStore(handle),
			Excel:  enrollmentStore.NewXLSXStore(filepath.Join(tmpDir, "enrollments.xlsx")),
		},
		Notifier: notifier,
		Mail:     mail,
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Start Playwright
	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL:  baseURL,
		Handle:   handle,
		Notifier: notifier,
		Server:   srv,
		PW:       pw,
		Browser:  browser,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		notifier.Wait()
		handle.Close()
	})

	return app
}

// newPage creates a new browser page (tab) that accepts every alert and
// records its message.
func (a *testApp) newPage(t *testing.T) (playwright.Page, *alertLog) {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })

	alerts := &alertLog{}
	page.OnDialog(func(d playwright.Dialog) {
		alerts.add(d.Message())
		d.Accept()
	})
	return page, alerts
}

// alertLog collects alert messages raised by the page.
type alertLog struct {
	mu       sync.Mutex
	messages []string
}

func (l *alertLog) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *alertLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

// fillEnrollForm loads the landing page and fills the enrollment form.
func (a *testApp) fillEnrollForm(t *testing.T, page playwright.Page, name, email, course string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/"); err != nil {
		t.Fatalf("failed to navigate to landing page: %v", err)
	}
	if err := page.Locator("#name").Fill(name); err != nil {
		t.Fatalf("failed to fill name: %v", err)
	}
	if err := page.Locator("#email").Fill(email); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if _, err := page.Locator("#course").SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(course),
	}); err != nil {
		t.Fatalf("failed to select course: %v", err)
	}
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
