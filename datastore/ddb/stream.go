/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/storagemodels"
)

// scanStream lazily pages through a Scan. Each page is fetched with retry on
// throttling; items are decoded and coerced as they are pulled.
type scanStream struct {
	c         *Client
	entity    string
	typeMap   map[string]string
	paginator *dynamodb.ScanPaginator

	page       []map[string]types.AttributeValue
	pos        int
	pageNumber int
	index      int64
	startTime  time.Time
	closed     bool
}

// scan starts a paged scan. The first page is fetched before returning so that
// errors such as a missing table surface from the read itself.
func (c *Client) scan(ctx context.Context, req datastore.ReadRequest, input *dynamodb.ScanInput) (datastore.Stream, error) {
	s := &scanStream{
		c:       c,
		entity:  req.Entity,
		typeMap: req.TypeMap,
		paginator: dynamodb.NewScanPaginator(c.api, input, func(o *dynamodb.ScanPaginatorOptions) {
			o.Limit = c.options.PageSize
		}),
		startTime: time.Now(),
	}
	if err := s.fetch(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *scanStream) Next(ctx context.Context) (datastore.Record, error) {
	for !s.closed && s.pos >= len(s.page) {
		if !s.paginator.HasMorePages() {
			s.reportProgress()
			_ = s.Close()
			break
		}
		if err := s.fetch(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	if s.closed {
		return nil, io.EOF
	}

	item := s.page[s.pos]
	s.pos++
	s.index++
	return decodeItem(s.entity, item, s.typeMap)
}

func (s *scanStream) Close() error {
	s.closed = true
	s.page = nil
	return nil
}

// fetch loads the next page into the buffer.
func (s *scanStream) fetch(ctx context.Context) error {
	out, err := s.c.scanWithRetry(ctx, s.paginator)
	if err != nil {
		return err
	}
	s.pageNumber++
	s.page = out.Items
	s.pos = 0
	s.c.logger.Debug("scan page",
		zap.String("entity", s.entity),
		zap.Int("page", s.pageNumber),
		zap.Int("items", len(out.Items)),
	)
	s.reportProgress()
	return nil
}

func (s *scanStream) reportProgress() {
	handler := s.c.options.ProgressHandler
	if handler == nil {
		return
	}
	progress := storagemodels.StreamProgress{
		ItemsProcessed: s.index,
		PagesProcessed: s.pageNumber,
		StartTime:      s.startTime,
	}
	if elapsed := time.Since(s.startTime).Seconds(); elapsed > 0 {
		progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
	}
	handler(progress)
}

// scanWithRetry fetches the next page, retrying throttling and server errors
// with linear backoff. The paginator only advances on success.
func (c *Client) scanWithRetry(ctx context.Context, p *dynamodb.ScanPaginator) (*dynamodb.ScanOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= c.options.MaxRetries; attempt++ {
		out, err := p.NextPage(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		if attempt < c.options.MaxRetries {
			backoff := time.Duration(attempt+1) * c.options.RetryBackoff
			c.logger.Warn("retrying scan page", zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("scan failed after %d retries: %w", c.options.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
