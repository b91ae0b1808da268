// Package host manages the watched desktop application: locating its
// executable, launching it with a remote debugging endpoint, and checking
// or ending its processes by image name.
package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

// Options configures a launch.
type Options struct {
	// Path is the host executable to start.
	Path string
	// Image is the process image name used to find and sweep the host's
	// processes, including children the executable spawns.
	Image string
	// Port is where the host opens its debugging endpoint.
	Port   int
	Logger *zap.Logger
}

// Process is a launched host application.
type Process struct {
	cmd    *exec.Cmd
	image  string
	log    *zap.Logger
	stdout *zapio.Writer
	stderr *zapio.Writer
	done   chan struct{}
}

// Launch starts the host executable with remote debugging enabled on the
// configured port. The child's output is relayed line by line into the
// logger, stdout at info and stderr at error.
func Launch(ctx context.Context, opts Options) (*Process, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	p := &Process{
		image:  opts.Image,
		log:    opts.Logger,
		stdout: &zapio.Writer{Log: opts.Logger.Named("host"), Level: zapcore.InfoLevel},
		stderr: &zapio.Writer{Log: opts.Logger.Named("host"), Level: zapcore.ErrorLevel},
	}
	p.cmd = exec.CommandContext(ctx, opts.Path, fmt.Sprintf("--remote-debugging-port=%d", opts.Port))
	p.cmd.Stdout = p.stdout
	p.cmd.Stderr = p.stderr

	opts.Logger.Info("starting host process", zap.String("path", opts.Path), zap.Int("port", opts.Port))
	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start host process: %w", err)
	}

	// Reap in the background so a child that exits on its own does not
	// linger in the process table and keep liveness checks returning true.
	p.done = make(chan struct{})
	go func() {
		_ = p.cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Stop kills the launched process, awaits its reaping, and then sweeps by
// image name for children that survived the kill. Safe to call after the
// process has already exited on its own.
func (p *Process) Stop() {
	p.log.Info("terminating host process")
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.log.Warn("kill host process", zap.Error(err))
	}
	<-p.done
	_ = p.stdout.Close()
	_ = p.stderr.Close()

	if Running(p.image) {
		p.log.Info("terminating remaining host processes", zap.String("image", p.image))
		if err := Terminate(p.image); err != nil {
			p.log.Error("terminate host processes", zap.Error(err))
		}
	}
}

// FreePort asks the kernel for a currently unused TCP port.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("probe free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
