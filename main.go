package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.uber.org/zap"

	"github.com/rackwatch/rackwatch/pkg/collector"
	"github.com/rackwatch/rackwatch/pkg/score"
	"github.com/rackwatch/rackwatch/pkg/secrets"
	"github.com/rackwatch/rackwatch/pkg/server"
	"github.com/rackwatch/rackwatch/pkg/sink"
	hecsink "github.com/rackwatch/rackwatch/pkg/sink/hec"
	s3sink "github.com/rackwatch/rackwatch/pkg/sink/s3"
	"github.com/rackwatch/rackwatch/pkg/vendors"
)

var args struct {
	Addr           string        `arg:"env:RACKWATCH_ADDR" default:":8000"`
	UIDir          string        `arg:"env:RACKWATCH_UI_DIR" default:"ui"`
	Debug          bool          `arg:"env:RACKWATCH_DEBUG" default:"false"`
	VendorProfiles string        `arg:"env:RACKWATCH_VENDOR_PROFILES" help:"YAML file overriding per-vendor Redfish paths"`
	PreferRedfish  bool          `arg:"env:RACKWATCH_PREFER_REDFISH" default:"true"`
	BMCTimeout     time.Duration `arg:"env:RACKWATCH_BMC_TIMEOUT" default:"10s"`

	CriticalWeight float64 `arg:"env:RACKWATCH_CRITICAL_WEIGHT" default:"0.2"`
	WarnWeight     float64 `arg:"env:RACKWATCH_WARN_WEIGHT" default:"0.05"`
	RiskThreshold  float64 `arg:"env:RACKWATCH_RISK_THRESHOLD" default:"0.3"`

	Region            string `arg:"env:AWS_REGION" default:"ap-southeast-2"`
	S3ArchiveURL      string `arg:"env:RACKWATCH_S3_ARCHIVE_URL" help:"example: https://YOURBUCKET.s3.ap-southeast-2.amazonaws.com/YOURFOLDER/"`
	S3AccessKeyID     string `arg:"env:RACKWATCH_S3_ACCESS_KEY_ID"`
	S3AccessKeySecret string `arg:"env:RACKWATCH_S3_ACCESS_KEY_SECRET"`

	HECEndpoints     []string      `arg:"env:RACKWATCH_HEC_ENDPOINTS"`
	HECToken         string        `arg:"env:RACKWATCH_HEC_TOKEN"`
	HECIndex         string        `arg:"env:RACKWATCH_HEC_INDEX" default:"main"`
	HECSource        string        `arg:"env:RACKWATCH_HEC_SOURCE" default:"rackwatch"`
	HECSourcetype    string        `arg:"env:RACKWATCH_HEC_SOURCETYPE" default:"bmc:event"`
	HECTLSSkipVerify bool          `arg:"env:RACKWATCH_HEC_TLS_SKIP_VERIFY" default:"true"`
	HECProxy         string        `arg:"env:RACKWATCH_HEC_PROXY"`
	HECTimeout       time.Duration `arg:"env:RACKWATCH_HEC_TIMEOUT" default:"2s"`
}

func main() {
	arg.MustParse(&args)

	logger := newLogger(args.Debug)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg := loadAWSConfig(ctx, logger)
	resolver := secrets.NewResolver(awsCfg)

	profiles := vendors.Builtin()
	if args.VendorProfiles != "" {
		loaded, err := vendors.Load(args.VendorProfiles)
		if err != nil {
			logger.Fatal("loading vendor profiles", zap.Error(err))
		}
		profiles = loaded
	}

	col := collector.New(collector.Config{
		DisableRedfish: !args.PreferRedfish,
		Timeout:        args.BMCTimeout,
		Profiles:       profiles,
		Logger:         logger,
	})

	sinks := buildSinks(ctx, awsCfg, resolver, logger)
	defer sinks.Close()

	srv := server.New(server.Config{
		Addr:      args.Addr,
		UIDir:     args.UIDir,
		Collector: col,
		Weights: score.Weights{
			Critical:  args.CriticalWeight,
			Warn:      args.WarnWeight,
			Threshold: args.RiskThreshold,
		},
		Sinks:    sinks,
		Resolver: resolver,
		Logger:   logger,
	})

	logger.Info("listening", zap.String("addr", args.Addr))
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func loadAWSConfig(ctx context.Context, logger *zap.Logger) aws.Config {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(args.Region),
	}
	if args.S3AccessKeyID != "" && args.S3AccessKeySecret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(args.S3AccessKeyID, args.S3AccessKeySecret, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logger.Fatal("loading AWS SDK config", zap.Error(err))
	}
	return awsCfg
}

// buildSinks wires the optional S3 archive and HEC forwarder. Either
// may be absent; both absent yields an empty Multi that stores nothing.
func buildSinks(ctx context.Context, awsCfg aws.Config, resolver *secrets.Resolver, logger *zap.Logger) sink.Multi {
	var sinks sink.Multi

	if args.S3ArchiveURL != "" {
		archive, err := s3sink.New(args.S3ArchiveURL, awsCfg)
		if err != nil {
			logger.Fatal("configuring S3 archive", zap.Error(err))
		}
		sinks = append(sinks, archive)
	}

	if len(args.HECEndpoints) > 0 {
		token, err := resolver.Resolve(ctx, args.HECToken)
		if err != nil {
			logger.Fatal("resolving HEC token", zap.Error(err))
		}
		forwarder, err := hecsink.New(hecsink.Config{
			Endpoints:     args.HECEndpoints,
			Token:         token,
			TLSSkipVerify: args.HECTLSSkipVerify,
			Proxy:         args.HECProxy,
			Index:         args.HECIndex,
			Source:        args.HECSource,
			SourceType:    args.HECSourcetype,
			Timeout:       args.HECTimeout,
		})
		if err != nil {
			logger.Fatal("configuring HEC forwarder", zap.Error(err))
		}
		sinks = append(sinks, forwarder)
	}

	return sinks
}
