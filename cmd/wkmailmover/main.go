package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Warky-Devs/WkMailMover/internal/archive"
	"github.com/Warky-Devs/WkMailMover/internal/failure"
	"github.com/Warky-Devs/WkMailMover/internal/mailbox"
	"github.com/Warky-Devs/WkMailMover/internal/mover"
	"github.com/Warky-Devs/WkMailMover/internal/params"
	"github.com/Warky-Devs/WkMailMover/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Every outcome is reported on stdout; the exit code is always 0.
	run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
}

// run executes one cycle. A nil connector uses the TLS IMAP dialer.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, connector mailbox.Connector) {
	values, err := params.Parse(args)
	if err != nil {
		emit(stdout, stderr, report.Failure(failure.Reason(err)))
		return
	}

	log := newLogger(values[params.KeyLogLevel], stderr).With(zap.String("run_id", uuid.NewString()))
	defer func() { _ = log.Sync() }()

	opts, err := params.Resolve(values)
	if err != nil {
		log.Warn("invalid arguments", zap.Error(err))
		emit(stdout, stderr, report.Failure(failure.Reason(err)))
		return
	}

	if connector == nil {
		d := mailbox.NewDialer()
		d.InsecureTLS = opts.InsecureTLS
		connector = d
	}

	m := mover.New(connector, log, sinks(opts, log)...)
	emit(stdout, stderr, m.Run(ctx, opts))
}

func sinks(opts *params.Options, log *zap.Logger) []archive.Sink {
	var out []archive.Sink
	if opts.ArchiveDir != "" {
		out = append(out, archive.NewMaildir(opts.ArchiveDir))
	}
	if opts.SFTP.Enabled() {
		out = append(out, archive.NewSFTP(archive.SFTPConfig{
			Addr:     opts.SFTP.Addr,
			User:     opts.SFTP.User,
			Password: opts.SFTP.Password,
			Dir:      opts.SFTP.Dir,
			HostKey:  opts.SFTP.HostKey,
		}, log))
	}
	return out
}

// newLogger builds a JSON logger on w. An empty or unknown level means info.
func newLogger(level string, w io.Writer) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	var badLevel error
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			badLevel = err
		} else {
			lvl = parsed
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	log := zap.New(core)
	if badLevel != nil {
		log.Warn("unknown log level, using info", zap.String("level", level), zap.Error(badLevel))
	}
	return log
}

func emit(stdout, stderr io.Writer, resp report.Response) {
	if err := report.Write(stdout, resp); err != nil {
		_, _ = io.WriteString(stderr, "failed to write result: "+err.Error()+"\n")
	}
}
