package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/claimgraph/internal/config"
	"github.com/OFFIS-RIT/claimgraph/internal/pipeline"
	"github.com/OFFIS-RIT/claimgraph/internal/storage"
	"github.com/OFFIS-RIT/claimgraph/internal/timing"
	"github.com/OFFIS-RIT/claimgraph/pkg/corpus"
	"github.com/OFFIS-RIT/claimgraph/pkg/export"
	"github.com/OFFIS-RIT/claimgraph/pkg/graph"
	"github.com/OFFIS-RIT/claimgraph/pkg/loader"
	lio "github.com/OFFIS-RIT/claimgraph/pkg/loader/io"
	ls3 "github.com/OFFIS-RIT/claimgraph/pkg/loader/s3"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type buildOptions struct {
	Triples   string
	Sentences string
	Out       string
}

func newBuildCmd(v *viper.Viper, cfg *config.Config) *cobra.Command {
	opts := buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the knowledge graph of one corpus",
		Long: `Build reads OpenIE triples (and optionally the segmented sentences),
extracts and resolves entity mentions, aligns the triples to canonical
labels and writes nodes.csv, edges.csv and report.json.

Inputs and --out may be local paths or s3://bucket/key locations.

Examples:
  claimgraph build --triples triples.tsv --out graph/
  claimgraph build --triples triples.tsv --sentences sentences.txt --extractors annie,llm
  claimgraph build --triples s3://claims/in/triples.tsv --out s3://claims/runs/manual`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Triples, "triples", "", "tab separated OpenIE triples")
	flags.StringVar(&opts.Sentences, "sentences", "", "one sentence per line")
	flags.StringVar(&opts.Out, "out", "out", "output directory or s3:// prefix")
	flags.String("align-policy", "substring", "how canonical keys match triple text (substring|token)")
	flags.String("extractors", "annie", "comma separated extractors (annie,llm)")
	flags.Bool("require-entity-subject", false, "drop triples whose subject matches no entity")
	flags.Bool("resolve", true, "link mentions to canonical entities")
	_ = cmd.MarkFlagRequired("triples")

	_ = v.BindPFlag("align_policy", flags.Lookup("align-policy"))
	_ = v.BindPFlag("extractors", flags.Lookup("extractors"))
	_ = v.BindPFlag("require_entity_subject", flags.Lookup("require-entity-subject"))
	_ = v.BindPFlag("resolver.enabled", flags.Lookup("resolve"))

	return cmd
}

func runBuild(cmd *cobra.Command, cfg *config.Config, opts buildOptions) error {
	ctx := cmd.Context()

	var s3Client *s3.Client
	if storage.IsURI(opts.Triples) || storage.IsURI(opts.Sentences) || storage.IsURI(opts.Out) {
		client, err := storage.NewS3Client(ctx, storage.S3Params{
			Region:    cfg.AWS.Region,
			Endpoint:  cfg.AWS.Endpoint,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
		})
		if err != nil {
			return err
		}
		s3Client = client
	}

	triplesData, err := readInput(ctx, s3Client, loader.InputKindTriples, opts.Triples)
	if err != nil {
		return err
	}
	triples, stats, err := corpus.ParseTriples(bytes.NewReader(triplesData))
	if err != nil {
		return fmt.Errorf("failed to parse triples %s: %w", opts.Triples, err)
	}
	logger.Info(
		"[Build] Triples loaded",
		"rows", stats.Rows,
		"admitted", stats.Admitted,
		"dropped", stats.Dropped,
		"documents", stats.Documents,
	)

	var sentences []string
	if opts.Sentences != "" {
		data, err := readInput(ctx, s3Client, loader.InputKindSentences, opts.Sentences)
		if err != nil {
			return err
		}
		sentences, err = corpus.ParseSentences(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to parse sentences %s: %w", opts.Sentences, err)
		}
	}

	p, err := pipeline.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.Graph.BuildGraph(ctx, graph.BuildInput{
		Triples:   triples,
		Sentences: sentences,
	})
	if err != nil {
		return err
	}

	sink, err := outputSink(s3Client, opts.Out)
	if err != nil {
		return err
	}
	report, err := json.MarshalIndent(res.Report, "", "  ")
	if err != nil {
		return err
	}
	if err := export.ExportRun(ctx, res.Graph, report, sink); err != nil {
		return err
	}

	fmt.Fprintf(
		cmd.OutOrStdout(),
		"nodes=%d edges=%d resolved=%d unresolved=%d duration=%s out=%s\n",
		res.Graph.NodeCount(),
		res.Graph.EdgeCount(),
		len(res.Links),
		len(res.Report.Resolution.Unresolved),
		timing.FormatDuration(res.Report.Duration),
		opts.Out,
	)
	return nil
}

func readInput(ctx context.Context, client *s3.Client, kind loader.InputKind, location string) ([]byte, error) {
	var (
		fl  loader.FileLoader
		key = location
	)
	if storage.IsURI(location) {
		bucket, prefix, err := storage.ParseURI(location)
		if err != nil {
			return nil, err
		}
		if prefix == "" {
			return nil, fmt.Errorf("%s names no object", location)
		}
		fl = ls3.NewS3FileLoaderWithClient(bucket, client)
		key = prefix
	} else {
		fl = lio.NewIOFileLoader()
	}

	params := loader.NewInputFileParams{ID: location, Path: key, Loader: fl}
	file := loader.NewTriplesFile(params)
	if kind == loader.InputKindSentences {
		file = loader.NewSentencesFile(params)
	}
	data, err := file.GetBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return data, nil
}

func outputSink(client *s3.Client, out string) (export.Sink, error) {
	if out == "" {
		return nil, errors.New("--out must not be empty")
	}
	if !storage.IsURI(out) {
		return export.NewDirSink(out), nil
	}
	bucket, prefix, err := storage.ParseURI(out)
	if err != nil {
		return nil, err
	}
	return export.NewS3Sink(client, bucket, prefix), nil
}
