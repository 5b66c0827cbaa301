package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	v2 "github.com/setavenger/xfp-indexer/internal/server/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	host := flag.String("host", "127.0.0.1:8001", "gRPC host of the indexer")
	fingerprint := flag.String("fingerprint", "", "xfp pair fingerprint to look up")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, conn := NewClient(ctx, *host)
	defer func(conn *grpc.ClientConn) {
		err := conn.Close()
		if err != nil {
			panic(err)
		}
	}(conn)

	info, err := client.GetInfo(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%+v\n", info)

	if *fingerprint == "" {
		return
	}

	ids, err := client.GetInscriptionIds(ctx, *fingerprint)
	if err != nil {
		log.Fatal(err)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func NewClient(ctx context.Context, host string) (*v2.IndexClient, *grpc.ClientConn) {
	// Connect to the server with a timeout context
	conn, err := grpc.DialContext(
		ctx,
		host,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}

	return v2.NewIndexClient(conn), conn
}
