package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/roach88/docdal/internal/config"
	"github.com/roach88/docdal/internal/dao"
	"github.com/roach88/docdal/internal/metrics"
	"github.com/roach88/docdal/internal/mongostore"
	"github.com/roach88/docdal/internal/queryfile"
	"github.com/roach88/docdal/internal/stats"
)

// Connector opens the driver used by find, count and update. The returned
// function releases it.
type Connector func(ctx context.Context, cfg config.MongoConfig) (dao.Driver, func(context.Context) error, error)

// MongoConnector connects through mongostore.
func MongoConnector(ctx context.Context, cfg config.MongoConfig) (dao.Driver, func(context.Context) error, error) {
	st, err := mongostore.Open(ctx, mongostore.Options{
		URI:      cfg.URI,
		Database: cfg.Database,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return st, st.Close, nil
}

// QueryOptions holds flags shared by the commands that run a query.
type QueryOptions struct {
	*RootOptions
	Entities string
	Stats    string

	// Connect allows overriding the driver (for testing).
	// If nil, defaults to MongoConnector.
	Connect Connector
}

func (o *QueryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Entities, "entities", "", "entity definitions directory (default: entities.dir from config)")
	cmd.Flags().StringVar(&o.Stats, "stats", "", "record statistics in this SQLite database (default: stats.path from config)")
}

// FindResult holds the documents returned by find.
type FindResult struct {
	Entity    string            `json:"entity"`
	Count     int               `json:"count"`
	Documents []json.RawMessage `json:"documents"`
}

// Text renders one document per line.
func (r FindResult) Text() string {
	var sb strings.Builder
	for _, d := range r.Documents {
		sb.Write(d)
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "(%d %s)\n", r.Count, plural(r.Count, "document", "documents"))
	return sb.String()
}

// CountResult holds the result of count.
type CountResult struct {
	Entity string `json:"entity"`
	Count  int64  `json:"count"`
}

func (r CountResult) Text() string {
	return fmt.Sprintf("%d\n", r.Count)
}

// UpdateResult holds the result of update.
type UpdateResult struct {
	Entity  string `json:"entity"`
	Matched int64  `json:"matched"`
}

func (r UpdateResult) Text() string {
	return fmt.Sprintf("matched %d\n", r.Matched)
}

// NewFindCommand creates the find command. connect may be nil.
func NewFindCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts, Connect: connect}

	cmd := &cobra.Command{
		Use:   "find <query.yaml>",
		Short: "Run a query file and print the matching documents",
		Long: `Run a query file against MongoDB and print the matching documents.
The where, fields, order, offset and limit keys are used.

Examples:
  docdal find --entities ./entities queries/adults.yaml
  docdal find -c docdal.yaml queries/adults.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd, findQuery)
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewCountCommand creates the count command. connect may be nil.
func NewCountCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts, Connect: connect}

	cmd := &cobra.Command{
		Use:   "count <query.yaml>",
		Short: "Count the documents matching a query file",
		Long: `Count the documents matching the where key of a query file.

Example:
  docdal count --entities ./entities queries/adults.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd, countQuery)
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewUpdateCommand creates the update command. connect may be nil.
func NewUpdateCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts, Connect: connect}

	cmd := &cobra.Command{
		Use:   "update <query.yaml>",
		Short: "Apply the set key of a query file to the matching documents",
		Long: `Assign the set key of a query file to every document matching its
where key and print the number of matched documents.

Example:
  docdal update --entities ./entities queries/close-minors.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd, updateQuery)
		},
	}
	opts.bind(cmd)

	return cmd
}

type queryFunc func(ctx context.Context, d *dao.DAO[bson.M], spec *queryfile.Spec) (any, error)

func findQuery(ctx context.Context, d *dao.DAO[bson.M], spec *queryfile.Spec) (any, error) {
	cond, err := spec.Condition()
	if err != nil {
		return nil, err
	}
	docs, err := d.Find(ctx, cond, spec.Pager(), spec.Chain(), spec.OrderBy())
	if err != nil {
		return nil, err
	}
	result := FindResult{Entity: d.Entity().Name, Count: len(docs), Documents: []json.RawMessage{}}
	for _, doc := range docs {
		raw, err := rawDoc(doc)
		if err != nil {
			return nil, err
		}
		result.Documents = append(result.Documents, raw)
	}
	return result, nil
}

func countQuery(ctx context.Context, d *dao.DAO[bson.M], spec *queryfile.Spec) (any, error) {
	cond, err := spec.Condition()
	if err != nil {
		return nil, err
	}
	n, err := d.Count(ctx, cond)
	if err != nil {
		return nil, err
	}
	return CountResult{Entity: d.Entity().Name, Count: n}, nil
}

func updateQuery(ctx context.Context, d *dao.DAO[bson.M], spec *queryfile.Spec) (any, error) {
	cond, err := spec.Condition()
	if err != nil {
		return nil, err
	}
	set, err := spec.Set()
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, &queryfile.ParseError{Path: "set", Message: "update needs at least one assignment"}
	}
	n, err := d.Update(ctx, cond, set)
	if err != nil {
		return nil, err
	}
	return UpdateResult{Entity: d.Entity().Name, Matched: n}, nil
}

// runQuery loads the query file and entity, connects, wires the
// collectors and hands a DAO to run.
func runQuery(opts *QueryOptions, path string, cmd *cobra.Command, run queryFunc) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	spec, entity, err := s.query(path, opts.Entities)
	if err != nil {
		return err
	}
	dialect, err := s.dialect()
	if err != nil {
		return err
	}

	collector, closeCollectors, err := s.collectors(opts.Stats)
	if err != nil {
		return err
	}
	defer closeCollectors()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	connect := opts.Connect
	if connect == nil {
		connect = MongoConnector
	}
	driver, release, err := connect(ctx, s.cfg.Mongo)
	if err != nil {
		return s.fail(ErrCodeConnect, ExitCommandError, "failed to connect", err)
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			s.logger.Error("error closing connection", "error", err)
		}
	}()

	d, err := dao.New[bson.M](driver, entity,
		dao.WithDialect(dialect),
		dao.WithCollector(collector),
		dao.WithLogger(s.logger),
	)
	if err != nil {
		return s.fail(ErrCodeUnresolvedEntity, ExitFailure, "invalid entity", err)
	}

	result, err := run(ctx, d, spec)
	if err != nil {
		return s.fail(ErrCodeDriver, ExitFailure, cmd.Name()+" failed", err)
	}
	return s.formatter.Success(result)
}

// collectors builds the perf logger, the Prometheus collector and, when a
// database is configured, the SQLite statistics store.
func (s *session) collectors(statsPath string) (metrics.Collector, func(), error) {
	warn, errAt := s.cfg.Perf.Thresholds()
	perf := metrics.NewPerfLogger(s.logger, metrics.WithThresholds(warn, errAt))

	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheus(reg, s.cfg.Metrics.Namespace)
	if err != nil {
		return nil, nil, s.fail(ErrCodeConfig, ExitCommandError, "invalid metrics namespace", err)
	}

	if statsPath == "" {
		statsPath = s.cfg.Stats.Path
	}
	var store *stats.Store
	if statsPath != "" {
		store, err = stats.Open(statsPath, stats.WithLogger(s.logger))
		if err != nil {
			return nil, nil, s.fail(ErrCodeStatsFailed, ExitCommandError, "failed to open statistics", err)
		}
	}

	closeFn := func() {
		s.reportMetrics(reg)
		if store == nil {
			return
		}
		if err := store.Close(); err != nil {
			s.logger.Error("error closing statistics", "error", err)
		}
	}

	// A nil *stats.Store must not reach Multi as a non-nil interface.
	if store == nil {
		return metrics.Multi(perf, prom), closeFn, nil
	}
	return metrics.Multi(perf, prom, store), closeFn, nil
}

// reportMetrics logs the gathered Prometheus series in verbose mode.
func (s *session) reportMetrics(reg *prometheus.Registry) {
	if !s.formatter.Verbose {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		s.logger.Warn("gather metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		s.formatter.VerboseLog("metric %s: %d series", mf.GetName(), len(mf.GetMetric()))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
