package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/setavenger/xfp-indexer/internal/blockparse"
	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/descriptor"
	"github.com/setavenger/xfp-indexer/internal/indexer"
	"github.com/setavenger/xfp-indexer/internal/inscription"
)

// tx-analyzer prints every inscription of a block (or of one tx in it) and why it was or was
// not accepted as an encrypted descriptor.
func main() {
	txid := flag.String("txid", "", "only analyse this transaction")
	blockhash := flag.String("blockhash", "", "hash of the block holding the transaction")
	source := flag.String("source", "rest", "rest or rpc")
	rpcUser := flag.String("rpc-user", "", "the nodes rpc user")
	rpcPass := flag.String("rpc-pass", "", "the nodes rpc password")
	node := flag.String("node", config.NodeEndpoint, "the node url (including port)")
	minLength := flag.Int("min-length", config.DefaultMinInscriptionLength, "minimum body length in characters")

	flag.Parse()

	config.RpcUser = *rpcUser
	config.RpcPass = *rpcPass
	config.NodeEndpoint = *node
	if *source == "rpc" {
		config.Source = config.SourceRPC
	}

	hash, err := chainhash.NewHashFromStr(*blockhash)
	if err != nil {
		fmt.Println("err:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw, err := indexer.NewBlockSource().GetBlockByHash(ctx, *hash)
	if err != nil {
		fmt.Println("err:", err)
		return
	}

	block, err := blockparse.DecodeBlock(raw)
	if err != nil {
		fmt.Println("err:", err)
		return
	}

	for i := range block.Transactions {
		tx := &block.Transactions[i]
		if *txid != "" && tx.Txid.String() != *txid {
			continue
		}
		analyse(tx, *minLength)
	}
}

func analyse(tx *blockparse.Transaction, minLength int) {
	if tx.DecodeErr != nil {
		fmt.Printf("%s: %v\n", tx.Txid, tx.DecodeErr)
		return
	}

	for vin, in := range tx.Inputs {
		envelopes, err := inscription.ParseWitness(in.Witness)
		if err != nil {
			fmt.Printf("%s:%d witness: %v\n", tx.Txid, vin, err)
			continue
		}

		for _, envelope := range envelopes {
			id := inscription.InscriptionID(tx.Txid.String(), envelope.Index)
			fmt.Printf("%s content-type=%q body=%d bytes\n", id, envelope.ContentType, len(envelope.Body))
			if !envelope.IsText() {
				continue
			}

			text, length := envelope.Text()
			if length < minLength {
				fmt.Printf("  too short: %d < %d characters\n", length, minLength)
				continue
			}

			rec, err := descriptor.Decode(text)
			if err != nil {
				fmt.Printf("  rejected: %v\n", err)
				continue
			}
			fmt.Printf("  descriptor: %s\n", rec.StrippedDescriptor)
			fmt.Printf("  xfps=%d xpubs=%d paths=%v\n", rec.TotalXfps, rec.TotalXpubs, rec.DerivationPaths)
			fmt.Printf("  xfp pair fingerprints: %v\n", rec.XfpPairFingerprints)
		}
	}
}
