package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"estateledger/internal/blob"
	"estateledger/internal/core"
	"estateledger/internal/infra/config"
	"estateledger/internal/infra/logger"
	"estateledger/pkg/domain"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const backupPrefix = "backups/"

var (
	now   = func() time.Time { return time.Now().UTC() }
	newID = uuid.NewString
)

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export, verify, back up and load ledger snapshots",
	}
	cmd.AddCommand(
		newExportCmd(root),
		newVerifyCmd(root),
		newBackupCmd(root),
		newLoadCmd(root),
	)
	return cmd
}

type session struct {
	cfg         *config.Config
	log         *zap.Logger
	svc         *core.Service
	registry    *prometheus.Registry
	metricsFile string
}

func openSession(cmd *cobra.Command, root *rootOptions) (*session, error) {
	cfg, err := config.LoadFile(root.configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: log, metricsFile: root.metricsFile}
	opts := []core.ServiceOption{core.WithLogger(logger.Named(log, "ledger"))}
	if root.metricsFile != "" {
		s.registry = prometheus.NewRegistry()
		metrics, err := core.NewPrometheusMetrics(s.registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, core.WithMetricsRecorder(metrics))
	}
	if root.trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(cmd.ErrOrStderr())))
	}
	svc, err := core.Open(cmd.Context(), cfg, opts...)
	if err != nil {
		s.writeMetrics()
		return nil, err
	}
	s.svc = svc
	return s, nil
}

func (s *session) writeMetrics() {
	if s.registry == nil {
		return
	}
	if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
		s.log.Warn("write metrics file", zap.String("path", s.metricsFile), zap.Error(err))
	}
}

func (s *session) close() {
	if err := s.svc.Close(); err != nil {
		s.log.Warn("close snapshot store", zap.Error(err))
	}
	s.writeMetrics()
	_ = s.log.Sync()
}

func printViolations(w io.Writer, res core.Result) {
	for _, v := range res.Violations {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\n", v.Severity, v.Rule, v.Entity, v.EntityID, v.Message)
	}
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the stored snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer s.close()
			data, err := s.svc.ExportSnapshot().Marshal()
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			if out != "" {
				return os.WriteFile(out, append(data, '\n'), 0o600)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the stored snapshot against the ledger invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			s, err := openSession(cmd, root)
			var blocked domain.RuleViolationError
			if errors.As(err, &blocked) {
				printViolations(w, blocked.Result)
			}
			if err != nil {
				return err
			}
			defer s.close()
			snapshot := s.svc.ExportSnapshot()
			res, err := core.VerifySnapshot(cmd.Context(), nil, snapshot)
			printViolations(w, res)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "snapshot ok: %d users, %d properties, %d leases\n",
				len(snapshot.Users), len(snapshot.Properties), len(snapshot.Leases))
			return err
		},
	}
}

func newBackupCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Upload the stored snapshot to the configured blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer s.close()
			data, err := s.svc.ExportSnapshot().Marshal()
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			blobs, err := core.OpenBlobStore(ctx, s.cfg)
			if err != nil {
				return fmt.Errorf("open blob store: %w", err)
			}
			key := fmt.Sprintf("%s%s-%s.json", backupPrefix, now().Format("20060102T150405Z"), newID())
			info, err := blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
				ContentType: "application/json",
				Metadata:    map[string]string{"storage-driver": s.cfg.Storage.Driver},
			})
			if err != nil {
				return fmt.Errorf("upload backup: %w", err)
			}
			s.log.Info("snapshot backed up", zap.String("key", info.Key), zap.Int64("bytes", info.Size))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.Key)
			return err
		},
	}
}

func newLoadCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Replace the stored snapshot with a verified JSON snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			snapshot, err := domain.UnmarshalSnapshot(data)
			if err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
			if _, err := core.VerifySnapshot(ctx, nil, snapshot); err != nil {
				return err
			}
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer s.close()
			store := s.svc.SnapshotStore()
			if store == nil {
				return errors.New("storage driver memory keeps no snapshot to replace")
			}
			if err := store.Save(ctx, snapshot); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d users, %d properties, %d leases\n",
				len(snapshot.Users), len(snapshot.Properties), len(snapshot.Leases))
			return err
		},
	}
}
