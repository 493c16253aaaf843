package stitcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/esimov/stitcher/utils"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

const statusTag = "⚡ STITCHER"

// Ops holds the command line level settings of a stitching run.
type Ops struct {
	// Left and Right are the source images: file paths, http(s) URLs or PipeName for stdin.
	Left, Right string
	// Dst receives the panorama, PipeName meaning stdout.
	Dst string
	// Matches receives the match visualization. Empty disables it.
	Matches  string
	PipeName string
	// Timeout bounds the whole run, zero meaning no limit.
	Timeout time.Duration
	// Output receives the progress indicator and the status messages.
	Output io.Writer
}

// stageMessages are shown next to the spinner while the pipeline runs.
var stageMessages = map[Stage]string{
	Registering: "matching the image features...",
	Aligned:     "images aligned",
	Blending:    "blending the images...",
}

// Execute runs the stitching as a command line operation: it resolves the
// sources and destinations, reports the progress and removes the partially
// written output on failure.
//
// The stitching itself cannot be interrupted, so on timeout or on an interrupt
// signal Execute returns without waiting for it.
func (s *Stitcher) Execute(ctx context.Context, op *Ops) (err error) {
	out := op.Output
	if out == nil {
		out = os.Stderr
	}
	if op.Dst != op.PipeName && !utils.HasExtension(op.Dst, SupportedExtensions) {
		return errors.Errorf("%v file type not supported", filepath.Ext(op.Dst))
	}
	if op.Matches != "" && !utils.HasExtension(op.Matches, SupportedExtensions) {
		return errors.Errorf("%v file type not supported", filepath.Ext(op.Matches))
	}
	if op.Left == op.PipeName && op.Right == op.PipeName {
		return errors.New("only one of the source images can be read from stdin")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if op.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, op.Timeout)
		defer cancel()
	}

	spinner := utils.NewSpinner(utils.StatusLine(statusTag, "loading the images...", utils.DefaultMessage), 80*time.Millisecond, true)
	spinner.SetWriter(out)
	spinner.Start()
	defer func() {
		if err != nil {
			spinner.StopMsg = utils.StatusLine(statusTag, "stitching failed ✘\n", utils.ErrorMessage)
		} else {
			spinner.StopMsg = utils.StatusLine(statusTag, "the panorama has been created successfully ✔\n", utils.SuccessMessage)
		}
		spinner.Stop()
	}()

	// Report the pipeline stages without overriding the hook of the caller.
	sc := *s
	sc.OnStage = func(st Stage) {
		if msg, ok := stageMessages[st]; ok {
			spinner.SetMessage(utils.StatusLine(statusTag, msg, utils.DefaultMessage))
		}
		if s.OnStage != nil {
			s.OnStage(st)
		}
	}

	now := time.Now()

	src1, err := op.openSource(ctx, op.Left)
	if err != nil {
		return errors.Wrap(err, "could not load image 1")
	}
	defer src1.Close()

	src2, err := op.openSource(ctx, op.Right)
	if err != nil {
		return errors.Wrap(err, "could not load image 2")
	}
	defer src2.Close()

	dst, err := op.openDestination(op.Dst)
	if err != nil {
		return err
	}
	var mw io.WriteCloser
	if op.Matches != "" {
		if mw, err = op.openDestination(op.Matches); err != nil {
			dst.Close()
			op.remove(op.Dst)
			return err
		}
	}

	errc := make(chan error, 1)
	go func() {
		errc <- sc.Process(src1, src2, dst, mw)
	}()

	select {
	case err = <-errc:
	case <-ctx.Done():
		err = errors.Wrap(ctx.Err(), "stitching aborted")
	}

	if cerr := dst.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if mw != nil {
		mw.Close()
	}
	if err != nil {
		op.remove(op.Dst)
		if !errors.Is(err, ErrInsufficientMatches) && !errors.Is(err, ErrDegenerateHomography) {
			op.remove(op.Matches)
		}
		return err
	}

	op.printStatus(out, time.Since(now))
	return nil
}

// openSource opens a source image given as a file path, a URL or the pipe name.
func (op *Ops) openSource(ctx context.Context, src string) (io.ReadCloser, error) {
	switch {
	case utils.IsValidUrl(src):
		f, err := utils.DownloadImage(ctx, src)
		if err != nil {
			return nil, err
		}
		return &tempFile{File: f}, nil
	case src == op.PipeName:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open the source file")
	}
	return f, nil
}

// openDestination creates the output file or returns stdout for the pipe name.
func (op *Ops) openDestination(dst string) (io.WriteCloser, error) {
	if dst == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdout")
		}
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(dst)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create the destination file")
	}
	return f, nil
}

// remove deletes a partially written output file.
func (op *Ops) remove(path string) {
	if path != "" && path != op.PipeName {
		os.Remove(path)
	}
}

// printStatus displays the output file names and the execution time.
func (op *Ops) printStatus(w io.Writer, elapsed time.Duration) {
	if op.Dst != op.PipeName {
		fmt.Fprintf(w, "\nThe panorama has been saved as: %s\n",
			utils.DecorateText(filepath.Base(op.Dst), utils.SuccessMessage),
		)
	}
	if op.Matches != "" && op.Matches != op.PipeName {
		fmt.Fprintf(w, "The matches have been saved as: %s\n",
			utils.DecorateText(filepath.Base(op.Matches), utils.SuccessMessage),
		)
	}
	fmt.Fprintf(w, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(elapsed), utils.SuccessMessage))
}

// tempFile is a downloaded image, deleted once closed.
type tempFile struct {
	*os.File
}

func (t *tempFile) Close() error {
	err := t.File.Close()
	os.Remove(t.File.Name())
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
