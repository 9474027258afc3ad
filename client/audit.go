package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Anchor is a blockchain anchor covering a batch of audit records.
type Anchor struct {
	ID             int        `json:"id"`
	MerkleRoot     string     `json:"merkle_root"`
	LeafCount      int        `json:"leaf_count"`
	FirstRecordAt  *time.Time `json:"first_record_at,omitempty"`
	LastRecordAt   *time.Time `json:"last_record_at,omitempty"`
	Network        string     `json:"network"`
	Status         string     `json:"status"`
	TxHash         string     `json:"tx_hash,omitempty"`
	BlockNumber    int        `json:"block_number,omitempty"`
	BlockTimestamp *time.Time `json:"block_timestamp,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	ExplorerURL    string     `json:"explorer_url,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// Proof is a Merkle proof tying an audit record to an anchor.
type Proof struct {
	RecordID       int        `json:"record_id"`
	RecordType     string     `json:"record_type"`
	ContentHash    string     `json:"content_hash"`
	AnchorID       int        `json:"anchor_id"`
	MerkleRoot     string     `json:"merkle_root"`
	LeafIndex      int        `json:"leaf_index"`
	LeafCount      int        `json:"leaf_count"`
	Path           []string   `json:"proof"`
	Network        string     `json:"network"`
	TxHash         string     `json:"tx_hash,omitempty"`
	BlockNumber    int        `json:"block_number,omitempty"`
	BlockTimestamp *time.Time `json:"block_timestamp,omitempty"`
	Verified       bool       `json:"verified"`
}

// VerificationResult is the platform's answer to a proof verification.
type VerificationResult struct {
	Verified           bool   `json:"verified"`
	ProofValid         bool   `json:"proof_valid"`
	BlockchainVerified bool   `json:"blockchain_verified"`
	ContentHash        string `json:"content_hash"`
	MerkleRoot         string `json:"merkle_root"`
	LeafIndex          int    `json:"leaf_index"`
	Network            string `json:"network,omitempty"`
	ExplorerURL        string `json:"explorer_url,omitempty"`
	Error              string `json:"error,omitempty"`
}

// AuditService wraps the blockchain audit verification endpoints.
type AuditService struct {
	client *Client
}

// Audit returns the audit service.
func (c *Client) Audit() *AuditService {
	return &AuditService{client: c}
}

// AnchorListOptions filter ListAnchors calls.
type AnchorListOptions struct {
	Status  string
	Network string
	Page    int
	PerPage int
}

// ListAnchors returns the organization's anchors and pagination info.
func (s *AuditService) ListAnchors(ctx context.Context, opts *AnchorListOptions) ([]Anchor, map[string]any, error) {
	query := url.Values{}
	query.Set("page", "1")
	query.Set("per_page", "25")
	if opts != nil {
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.Network != "" {
			query.Set("network", opts.Network)
		}
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PerPage > 0 {
			query.Set("per_page", strconv.Itoa(opts.PerPage))
		}
	}

	var out struct {
		Anchors    []Anchor       `json:"anchors"`
		Pagination map[string]any `json:"pagination"`
	}
	if err := s.client.Get(ctx, "/api/v1/audit/anchors", &RequestOptions{Query: query}, &out); err != nil {
		return nil, nil, &AuditError{Message: "failed to list anchors", Cause: err}
	}
	return out.Anchors, out.Pagination, nil
}

// GetProof fetches the Merkle proof for an audit record.
func (s *AuditService) GetProof(ctx context.Context, recordID int) (*Proof, error) {
	var out Proof
	path := "/api/v1/audit/records/" + strconv.Itoa(recordID) + "/proof"
	if err := s.client.Get(ctx, path, nil, &out); err != nil {
		return nil, &AuditError{Message: fmt.Sprintf("failed to get proof for record %d", recordID), Cause: err}
	}
	return &out, nil
}

// Verify asks the platform to verify a proof against the chain.
func (s *AuditService) Verify(ctx context.Context, proof *Proof) (*VerificationResult, error) {
	body := map[string]any{
		"content_hash": proof.ContentHash,
		"merkle_root":  proof.MerkleRoot,
		"proof":        proof.Path,
		"leaf_index":   proof.LeafIndex,
		"tx_hash":      proof.TxHash,
	}

	var out VerificationResult
	if err := s.client.Post(ctx, "/api/v1/audit/verify", &RequestOptions{Body: body}, &out); err != nil {
		return nil, &AuditError{Message: "verification request failed", Cause: err}
	}
	return &out, nil
}

// ComputeContentHash computes the canonical content hash of a record: SHA-256
// over the compact JSON encoding with sorted keys, 0x-prefixed.
func ComputeContentHash(data map[string]any) (string, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		vb, err := json.Marshal(data[k])
		if err != nil {
			return "", err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')

	digest := sha256.Sum256(buf.Bytes())
	return "0x" + hex.EncodeToString(digest[:]), nil
}

// VerifyProofLocally recomputes the Merkle root from a content hash and proof
// path without calling the platform. Sibling pairs are hashed in sorted order.
func VerifyProofLocally(contentHash string, proofPath []string, leafIndex int, merkleRoot string) (bool, error) {
	current, err := normalizeHash(contentHash)
	if err != nil {
		return false, fmt.Errorf("invalid content hash: %w", err)
	}

	idx := leafIndex
	for _, siblingHex := range proofPath {
		sibling, err := normalizeHash(siblingHex)
		if err != nil {
			return false, fmt.Errorf("invalid proof element: %w", err)
		}
		if idx%2 == 0 {
			current = hashPair(current, sibling)
		} else {
			current = hashPair(sibling, current)
		}
		idx /= 2
	}

	expected, err := normalizeHash(merkleRoot)
	if err != nil {
		return false, fmt.Errorf("invalid merkle root: %w", err)
	}
	return bytes.Equal(current, expected), nil
}

func normalizeHash(h string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(h, "0x"))
}

func hashPair(left, right []byte) []byte {
	if bytes.Compare(left, right) > 0 {
		left, right = right, left
	}
	digest := sha256.Sum256(append(append([]byte{}, left...), right...))
	return digest[:]
}
