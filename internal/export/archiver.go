package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chrisedwards/discord-archive/internal/discord"
)

// pageStyle removes the converter's default page margins.
const pageStyle = "@page { margin: 0; }"

// ErrNoOutput is returned when a tool exits successfully without producing
// its output file.
var ErrNoOutput = errors.New("expected output file was not created")

// Options configures an Archiver.
type Options struct {
	ExporterPath  string // empty: bundled binary, then PATH
	ConverterPath string // empty: DefaultConverter
	Token         string
	OutputDir     string
	Runner        Runner // defaults to ExecRunner
	Logger        *slog.Logger
}

// Archiver exports one chat at a time to a PDF.
type Archiver struct {
	exporterPath  string
	converterPath string
	token         string
	outputDir     string
	run           Runner
	lg            *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(opts Options) *Archiver {
	a := &Archiver{
		exporterPath:  opts.ExporterPath,
		converterPath: opts.ConverterPath,
		token:         opts.Token,
		outputDir:     opts.OutputDir,
		run:           opts.Runner,
		lg:            opts.Logger,
	}
	if a.outputDir == "" {
		a.outputDir = "."
	}
	if a.run == nil {
		a.run = ExecRunner{}
	}
	if a.lg == nil {
		a.lg = slog.Default()
	}
	return a
}

// Archive exports chat to HTML, converts it to PDF and removes the HTML and
// its media directory. The intermediate files are removed whether or not the
// conversion succeeds. On success the PDF artifact is returned.
func (a *Archiver) Archive(ctx context.Context, chat discord.Chat) (*Artifact, error) {
	base := BaseName(chat)
	htmlPath := filepath.Join(a.outputDir, base+".html")
	pdfPath := filepath.Join(a.outputDir, base+".pdf")
	mediaDir := filepath.Join(a.outputDir, base+"_attachments")

	if err := a.export(ctx, chat, htmlPath); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", chat.Label(), err)
	}
	defer a.cleanup(htmlPath, mediaDir)

	messages, err := CountMessages(htmlPath)
	if err != nil {
		a.lg.Debug("counting messages failed", "file", htmlPath, "error", err)
	}

	if err := a.convert(ctx, htmlPath, pdfPath); err != nil {
		return nil, fmt.Errorf("converting %s: %w", chat.Label(), err)
	}

	fi, err := os.Stat(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", chat.Label(), ErrNoOutput)
	}
	art := &Artifact{Path: pdfPath, Size: fi.Size(), Messages: messages}
	if art.Pages, err = CountPages(pdfPath); err != nil {
		a.lg.Debug("counting pages failed", "file", pdfPath, "error", err)
	}
	return art, nil
}

func (a *Archiver) export(ctx context.Context, chat discord.Chat, htmlPath string) error {
	bin, err := FindExporter(a.exporterPath)
	if err != nil {
		return err
	}
	args := []string{
		"export",
		"-t", a.token,
		"-c", chat.ChatID(),
		"-o", htmlPath,
		"--media",
		"--markdown",
	}
	a.lg.Debug("running exporter", "bin", bin, "args", redact(args, a.token))
	if err := a.run.Run(ctx, bin, args...); err != nil {
		return err
	}
	if _, err := os.Stat(htmlPath); err != nil {
		return ErrNoOutput
	}
	return nil
}

func (a *Archiver) convert(ctx context.Context, htmlPath, pdfPath string) error {
	bin, err := FindConverter(a.converterPath)
	if err != nil {
		return err
	}
	var args []string
	css, err := writeStylesheet()
	if err != nil {
		// margins are cosmetic, convert without them
		a.lg.Warn("creating page stylesheet failed", "error", err)
	} else {
		defer os.Remove(css)
		args = append(args, "--stylesheet", css)
	}
	args = append(args, "--encoding", "utf-8", htmlPath, pdfPath)

	a.lg.Debug("running converter", "bin", bin, "args", args)
	return a.run.Run(ctx, bin, args...)
}

func writeStylesheet() (string, error) {
	f, err := os.CreateTemp("", "discord-archive-*.css")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(pageStyle); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (a *Archiver) cleanup(htmlPath, mediaDir string) {
	if err := os.Remove(htmlPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.lg.Warn("removing intermediate export failed", "file", htmlPath, "error", err)
	}
	if err := os.RemoveAll(mediaDir); err != nil {
		a.lg.Warn("removing media directory failed", "dir", mediaDir, "error", err)
	}
}
