package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/setavenger/xfp-indexer/internal/benchmark"
	"github.com/setavenger/xfp-indexer/internal/logging"
	v2 "github.com/setavenger/xfp-indexer/internal/server/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	var (
		fingerprintList = flag.String("fingerprints", "", "Comma separated fingerprints, random ones if empty")
		random          = flag.Int("random", 1000, "Number of random fingerprints when none are given")
		httpURL         = flag.String("http", "http://127.0.0.1:3000", "HTTP API base URL")
		grpcHost        = flag.String("grpc", "127.0.0.1:8001", "gRPC server host:port")
		runV1           = flag.Bool("v1", true, "Run v1 HTTP benchmark")
		runV2           = flag.Bool("v2", true, "Run v2 gRPC benchmark")
		compare         = flag.Bool("compare", false, "Compare v1 and v2 data instead of benchmarking")
	)
	flag.Parse()

	// Setup logging
	logging.SetLogLevel(zerolog.InfoLevel)

	fingerprints := parseFingerprints(*fingerprintList, *random)
	ctx := context.Background()

	var grpcClient *v2.IndexClient
	if *runV2 || *compare {
		conn, err := grpc.Dial(*grpcHost, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			logging.L.Fatal().Err(err).Msg("failed to connect to gRPC server")
		}
		defer conn.Close()
		grpcClient = v2.NewIndexClient(conn)
	}

	if *compare {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		mismatches, err := benchmark.CompareV1V2(ctx, fingerprints, benchmark.NewClientV1(*httpURL), grpcClient)
		if err != nil {
			logging.L.Fatal().Err(err).Msg("comparison failed")
		}
		for _, m := range mismatches {
			logging.L.Warn().Msg(m.String())
		}
		if len(mismatches) > 0 {
			os.Exit(1)
		}
		return
	}

	if *runV1 {
		benchmark.BenchmarkV1(ctx, fingerprints, *httpURL)
	}
	if *runV2 {
		benchmark.BenchmarkV2(ctx, fingerprints, grpcClient)
	}
}

func parseFingerprints(list string, random int) []string {
	if list != "" {
		return strings.Split(list, ",")
	}
	out := make([]string, random)
	buf := make([]byte, 4)
	for i := range out {
		_, _ = rand.Read(buf)
		out[i] = hex.EncodeToString(buf)
	}
	return out
}
