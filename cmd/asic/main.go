// asic packages files and directories into signed ASiC-E containers.
//
// With a single source the container is written to --out. With several
// sources each container is written to --out-dir as <source>.asice and the
// sources are packaged concurrently. The OCI descriptor of every written
// container is printed to stdout as JSON.
//
// Settings can be kept in a YAML profile given with --profile. Flags override
// the profile.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/spf13/pflag"

	"github.com/meigma/asic"
)

type config struct {
	profile     string
	out         string
	outDir      string
	prefix      string
	rootFile    string
	workers     int
	modTime     string
	logLevel    string
	logFormat   string
	digests     []string
	compression string
	maxFiles    int
	signer      string
	key         string
	format      string
	recipients  []string
	passwordEnv string
	encrypt     []string
	odf         bool
	descriptors bool
	quiet       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cfg config
	flags := newFlagSet(&cfg, stderr)
	if err := flags.Parse(args); err != nil {
		return err
	}
	sources := flags.Args()
	if len(sources) == 0 {
		flags.Usage()
		return errors.New("no sources given")
	}

	logger, err := newLogger(stderr, cfg.logLevel, cfg.logFormat)
	if err != nil {
		return err
	}

	p, err := loadProfile(cfg.profile)
	if err != nil {
		return err
	}
	applyFlags(flags, &cfg, &p)

	opts, err := p.options(logger)
	if err != nil {
		return err
	}
	mt, err := modTime(cfg.modTime)
	if err != nil {
		return err
	}
	if !mt.IsZero() {
		opts = append(opts, asic.WithModTime(mt))
	}
	encrypt, err := p.Encryption.matcher()
	if err != nil {
		return err
	}

	jobs, err := buildJobs(&cfg, sources, encrypt, logger)
	if err != nil {
		return err
	}

	var descs []ocispec.Descriptor
	if len(jobs) == 1 {
		desc, err := asic.Package(ctx, jobs[0], opts...)
		if err != nil {
			return err
		}
		descs = []ocispec.Descriptor{desc}
	} else {
		descs, err = asic.PackageAll(ctx, jobs, cfg.workers, opts...)
		if err != nil {
			return err
		}
	}

	for _, d := range descs {
		logger.Info("container written",
			"path", d.Annotations[ocispec.AnnotationTitle],
			"digest", d.Digest.String(),
			"size", d.Size)
	}
	if cfg.quiet {
		return nil
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if len(descs) == 1 {
		return enc.Encode(descs[0])
	}
	return enc.Encode(descs)
}

func newFlagSet(cfg *config, stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet("asic", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: asic [flags] SOURCE...\n\nFlags:\n")
		flags.PrintDefaults()
	}

	flags.StringVarP(&cfg.profile, "profile", "p", "", "YAML profile with packaging settings")
	flags.StringVarP(&cfg.out, "out", "o", "", "container file for a single source (default: <source>.asice)")
	flags.StringVar(&cfg.outDir, "out-dir", ".", "directory for containers when packaging several sources")
	flags.StringVar(&cfg.prefix, "prefix", "", "directory inside the container for the added files")
	flags.StringVar(&cfg.rootFile, "root-file", "", "data entry to mark as the root file")
	flags.IntVarP(&cfg.workers, "workers", "j", 0, "containers built concurrently (0 = GOMAXPROCS, <0 = serial)")
	flags.StringVar(&cfg.modTime, "mod-time", "", "RFC 3339 modification time recorded on archive members")
	flags.StringVar(&cfg.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.logFormat, "log-format", "text", "log format (text, json)")
	flags.StringSliceVar(&cfg.digests, "digest", nil, "digest algorithms (sha256, sha384, sha512, sha3-256, blake3)")
	flags.StringVar(&cfg.compression, "compression", "", "entry compression (deflate, none, zstd)")
	flags.IntVar(&cfg.maxFiles, "max-files", 0, "maximum files per source directory (0 = default, <0 = unlimited)")
	flags.StringVar(&cfg.signer, "signer", "", "signature algorithm (ed25519, dilithium3)")
	flags.StringVar(&cfg.key, "key", "", "signing key file (default: ephemeral key)")
	flags.StringVar(&cfg.format, "format", "", "signature format (manifest, signatures)")
	flags.StringArrayVar(&cfg.recipients, "age-recipient", nil, "age recipient for encrypted entries (repeatable)")
	flags.StringVar(&cfg.passwordEnv, "password-env", "", "environment variable holding the OpenSSL encryption password")
	flags.StringArrayVar(&cfg.encrypt, "encrypt", nil, "glob of files to encrypt (repeatable)")
	flags.BoolVar(&cfg.odf, "odf-manifest", false, "write an OpenDocument META-INF/manifest.xml")
	flags.BoolVar(&cfg.descriptors, "descriptors", false, "write OCI descriptors of the data entries")
	flags.BoolVarP(&cfg.quiet, "quiet", "q", false, "do not print descriptors")
	return flags
}

// applyFlags copies the flags set on the command line over the profile.
func applyFlags(flags *pflag.FlagSet, cfg *config, p *profile) {
	if flags.Changed("digest") {
		p.Digests = cfg.digests
	}
	if flags.Changed("compression") {
		p.Compression = cfg.compression
	}
	if flags.Changed("max-files") {
		p.MaxFiles = cfg.maxFiles
	}
	if flags.Changed("signer") {
		p.Signer.Algorithm = cfg.signer
	}
	if flags.Changed("key") {
		p.Signer.Key = cfg.key
	}
	if flags.Changed("format") {
		p.Signer.Format = cfg.format
	}
	if flags.Changed("age-recipient") {
		p.Encryption.AgeRecipients = cfg.recipients
	}
	if flags.Changed("password-env") {
		p.Encryption.PasswordEnv = cfg.passwordEnv
	}
	if flags.Changed("encrypt") {
		p.Encryption.Patterns = cfg.encrypt
	}
	if flags.Changed("odf-manifest") {
		p.Processors.OpenDocumentManifest = cfg.odf
	}
	if flags.Changed("descriptors") {
		p.Processors.Descriptors = cfg.descriptors
	}
}

func buildJobs(cfg *config, sources []string, encrypt func(string) bool, logger *slog.Logger) ([]asic.PackageJob, error) {
	if len(sources) > 1 && cfg.out != "" {
		return nil, errors.New("--out takes a single source; use --out-dir")
	}
	jobs := make([]asic.PackageJob, 0, len(sources))
	for _, src := range sources {
		dest := cfg.out
		if dest == "" {
			name := filepath.Base(filepath.Clean(src))
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".asice"
			if len(sources) == 1 && cfg.outDir == "." {
				dest = name
			} else {
				dest = filepath.Join(cfg.outDir, name)
			}
		}
		jobs = append(jobs, asic.PackageJob{
			Dest:     dest,
			Source:   src,
			Prefix:   cfg.prefix,
			RootFile: cfg.rootFile,
			Encrypt:  encrypt,
			Progress: progressLogger(logger, src),
		})
	}
	return jobs, nil
}

func progressLogger(logger *slog.Logger, src string) asic.ProgressFunc {
	return func(ev asic.ProgressEvent) {
		logger.Debug("progress",
			"source", src,
			"stage", ev.Stage.String(),
			"path", ev.Path,
			"files", ev.FilesDone,
			"bytes", ev.BytesDone)
	}
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
