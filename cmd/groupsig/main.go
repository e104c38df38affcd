package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/relves/groupsig/pkg/blinding"
	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/nettime"
	"github.com/relves/groupsig/pkg/sogsauth"
	"github.com/relves/groupsig/pkg/types"
)

const usage = `usage: groupsig <command> [flags]

commands:
  identity   print the identity keys and session id
  blind      print the blinded id for a group or server key
  headers    sign a community request and print its headers
  match      check whether a blinded id belongs to a session id

The identity seed is read from GROUPSIG_IDENTITY_SEED (hex). An ephemeral
seed is generated when it is not set.
`

func main() {
	levelStr := getEnv("LOG_LEVEL", "info")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	p := edcrypto.Default()
	var err error
	switch os.Args[1] {
	case "identity":
		err = runIdentity(p, os.Args[2:])
	case "blind":
		err = runBlind(p, os.Args[2:])
	case "headers":
		err = runHeaders(p, os.Args[2:])
	case "match":
		err = runMatch(p, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runIdentity(p edcrypto.Provider, args []string) error {
	fs := flag.NewFlagSet("identity", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := loadIdentity()
	if err != nil {
		return err
	}
	sid, err := id.SessionID()
	if err != nil {
		return err
	}
	fmt.Printf("Ed25519 public key: %s\n", hex.EncodeToString(id.Public[:]))
	fmt.Printf("Session ID:         %s\n", sid)
	return nil
}

func runBlind(p edcrypto.Provider, args []string) error {
	fs := flag.NewFlagSet("blind", flag.ExitOnError)
	keyHex := fs.String("key", "", "group or server public key (hex, 03 prefix allowed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pk, err := types.ParseGroupPubKey(*keyHex)
	if err != nil {
		return err
	}
	id, err := loadIdentity()
	if err != nil {
		return err
	}
	kp, err := blinding.DeriveKeyPair(p, id, pk[:])
	if err != nil {
		return err
	}
	fmt.Println(blinding.SessionID(kp))
	return nil
}

func runHeaders(p edcrypto.Provider, args []string) error {
	fs := flag.NewFlagSet("headers", flag.ExitOnError)
	serverHex := fs.String("server", "", "server public key (hex)")
	method := fs.String("method", "GET", "HTTP method")
	path := fs.String("path", "/", "request path including query")
	body := fs.String("body", "", "request body")
	blinded := fs.Bool("blinded", true, "sign with the blinded key")
	ts := fs.Int64("timestamp", 0, "unix seconds, now when 0")
	nonceHex := fs.String("nonce", "", "16 byte nonce (hex), random when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := hex.DecodeString(*serverHex)
	if err != nil {
		return fmt.Errorf("failed to decode server key: %w", err)
	}
	var nonce []byte
	if *nonceHex != "" {
		if nonce, err = hex.DecodeString(*nonceHex); err != nil {
			return fmt.Errorf("failed to decode nonce: %w", err)
		}
	}
	id, err := loadIdentity()
	if err != nil {
		return err
	}

	auth := sogsauth.NewAuthenticator(p, id, nettime.NewNetworkClock(slog.Default()))
	h, err := auth.Sign(sogsauth.Request{
		ServerPK:  server,
		Method:    *method,
		Path:      *path,
		Body:      []byte(*body),
		Timestamp: *ts,
		Nonce:     nonce,
		Blinded:   *blinded,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]string{
		sogsauth.HeaderPubkey:    h.Pubkey.String(),
		sogsauth.HeaderTimestamp: h.Timestamp,
		sogsauth.HeaderNonce:     h.Nonce,
		sogsauth.HeaderSignature: h.Signature,
	})
}

func runMatch(p edcrypto.Provider, args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	standard := fs.String("standard", "", "05 session id")
	blindedID := fs.String("blinded", "", "15 blinded id")
	serverHex := fs.String("server", "", "server public key (hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	server, err := hex.DecodeString(*serverHex)
	if err != nil {
		return fmt.Errorf("failed to decode server key: %w", err)
	}
	ok, err := blinding.MatchStandard(p, types.SessionID(*standard), types.SessionID(*blindedID), server)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	if !ok {
		os.Exit(3)
	}
	return nil
}

func loadIdentity() (edcrypto.Identity, error) {
	if seedEnv := os.Getenv("GROUPSIG_IDENTITY_SEED"); seedEnv != "" {
		seed, err := hex.DecodeString(seedEnv)
		if err != nil {
			return edcrypto.Identity{}, fmt.Errorf("failed to decode GROUPSIG_IDENTITY_SEED: %w", err)
		}
		return edcrypto.IdentityFromSeed(seed)
	}

	slog.Warn("GROUPSIG_IDENTITY_SEED not set, using an ephemeral identity")
	seed := make([]byte, edcrypto.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return edcrypto.Identity{}, err
	}
	return edcrypto.IdentityFromSeed(seed)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
