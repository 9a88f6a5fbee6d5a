package helpers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// NewESClient builds a client with bounded dial and header timeouts.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("elasticsearch: no addresses configured")
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	})
}

// UsersIndexMapping is the mapping for the profile search index. Name and
// email fields are analysed text; the rest are exact-match keywords.
const UsersIndexMapping = `{
  "mappings": {
    "properties": {
      "id":            {"type": "keyword"},
      "email":         {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "first_name":    {"type": "text"},
      "last_name":     {"type": "text"},
      "full_name":     {"type": "text"},
      "contact_no":    {"type": "keyword"},
      "profile_image": {"type": "keyword", "index": false},
      "role":          {"type": "keyword"},
      "created_at":    {"type": "date"},
      "updated_at":    {"type": "date"}
    }
  }
}`

// EnsureIndex creates index with mapping unless it already exists. It
// reports whether the index was created.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index, mapping string) (bool, error) {
	exists, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, es)
	if err != nil {
		return false, err
	}
	_ = exists.Body.Close()
	switch exists.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("elasticsearch: check index %s: %s", index, exists.Status())
	}

	res, err := esapi.IndicesCreateRequest{Index: index, Body: strings.NewReader(mapping)}.Do(ctx, es)
	if err != nil {
		return false, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		// lost a race with another instance
		if res.StatusCode == http.StatusBadRequest && strings.Contains(res.String(), "resource_already_exists_exception") {
			return false, nil
		}
		return false, fmt.Errorf("elasticsearch: create index %s: %s", index, res.Status())
	}
	return true, nil
}
