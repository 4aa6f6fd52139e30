package firefox

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/tebeka/selenium"
)

const (
	// DefaultStartTimeout bounds how long Launch waits for geckodriver to
	// answer /status.
	DefaultStartTimeout = 30 * time.Second

	readyPollInterval = 100 * time.Millisecond
)

// Session is a live WebDriver session plus the hook that stops the driver
// process behind it.
type Session struct {
	WebDriver selenium.WebDriver
	Stop      func() error
}

// Launcher starts a driver executable and opens a session with caps.
type Launcher interface {
	Launch(ctx context.Context, driverPath string, caps selenium.Capabilities) (*Session, error)
}

// GeckoLauncher runs geckodriver on a free local port.
type GeckoLauncher struct {
	// Output receives geckodriver's stdout and stderr. nil discards it.
	Output io.Writer
	// StartTimeout defaults to DefaultStartTimeout.
	StartTimeout time.Duration
}

// Launch starts geckodriver, waits until it is ready and opens a session.
// The process is killed and reaped whenever Launch returns an error,
// including when ctx ends while waiting.
func (g *GeckoLauncher) Launch(ctx context.Context, driverPath string, caps selenium.Capabilities) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("pick port: %w", err)
	}

	out := g.Output
	if out == nil {
		out = io.Discard
	}
	// Not CommandContext: the process must outlive ctx once the session is up.
	cmd := exec.Command(driverPath, "--port", strconv.Itoa(port))
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = time.Second
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start geckodriver %s: %w", driverPath, err)
	}
	proc := watchProcess(cmd)

	timeout := g.StartTimeout
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}
	addr := fmt.Sprintf("http://127.0.0.1:%d", port)
	if err := waitReady(ctx, proc, addr+"/status", timeout); err != nil {
		_ = proc.stop()
		return nil, fmt.Errorf("start geckodriver %s: %w", driverPath, err)
	}

	if err := ctx.Err(); err != nil {
		_ = proc.stop()
		return nil, err
	}

	wd, err := selenium.NewRemote(caps, addr)
	if err != nil {
		_ = proc.stop()
		return nil, fmt.Errorf("new session: %w", err)
	}
	return &Session{WebDriver: wd, Stop: proc.stop}, nil
}

// driverProcess is a started geckodriver. done closes once the process has
// been reaped.
type driverProcess struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	once    sync.Once
}

func watchProcess(cmd *exec.Cmd) *driverProcess {
	p := &driverProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p
}

// stop kills the process if it is still running and waits for it to be
// reaped. It is safe to call more than once.
func (p *driverProcess) stop() error {
	var err error
	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		if kerr := p.cmd.Process.Kill(); kerr != nil {
			err = fmt.Errorf("kill geckodriver: %w", kerr)
		}
		<-p.done
	})
	return err
}

func waitReady(ctx context.Context, p *driverProcess, statusURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(readyPollInterval)
	defer tick.Stop()
	for {
		if statusOK(ctx, statusURL) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", statusURL, ctx.Err())
		case <-p.done:
			return fmt.Errorf("geckodriver exited before it was ready: %v", p.waitErr)
		case <-tick.C:
		}
	}
}

func statusOK(ctx context.Context, statusURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
