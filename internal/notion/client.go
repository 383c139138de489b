// Package notion publishes generated lesson pages to a Notion database.
package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/takak2166/curriculum-tools/internal/logger"
)

const (
	// maxChildrenPerRequest is the Notion limit on blocks per create or append call
	maxChildrenPerRequest = 100

	defaultAttempts   = 3
	defaultRetryDelay = time.Second
)

// Outcome describes what PublishLesson did with a lesson
type Outcome string

const (
	Created  Outcome = "created"
	Skipped  Outcome = "skipped"
	Replaced Outcome = "replaced"
)

// Lesson is one lesson page to publish
type Lesson struct {
	Title    string
	Slug     string
	Day      int
	Markdown string
}

// Client wraps the Notion API client
type Client struct {
	client     NotionClient
	parentID   notionapi.PageID
	parentType notionapi.ParentType
	attempts   int
	retryDelay time.Duration
}

// New creates a new Notion client
func New(apiKey, parentPageID string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("NOTION_API_KEY is not set")
	}
	if parentPageID == "" {
		return nil, fmt.Errorf("NOTION_PARENT_PAGE_ID is not set")
	}

	notionClient := notionapi.NewClient(notionapi.Token(apiKey))
	return &Client{
		client:     newNotionClientAdapter(notionClient),
		parentID:   notionapi.PageID(parentPageID),
		parentType: "page_id",
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
	}, nil
}

// NewWithClient creates a client on top of an existing API client.
// retryDelay is the wait between page creation attempts.
func NewWithClient(client NotionClient, parentPageID string, retryDelay time.Duration) *Client {
	return &Client{
		client:     client,
		parentID:   notionapi.PageID(parentPageID),
		parentType: "page_id",
		attempts:   defaultAttempts,
		retryDelay: retryDelay,
	}
}

// EnsureLibrary returns the lesson database named title below the parent page,
// creating it when no database with that title exists.
func (c *Client) EnsureLibrary(ctx context.Context, title string) (notionapi.DatabaseID, error) {
	query := &notionapi.SearchRequest{
		Query: title,
		Filter: notionapi.SearchFilter{
			Property: "object",
			Value:    "database",
		},
	}

	results, err := c.client.Search().Do(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to search for lesson database: %w", err)
	}
	for _, result := range results.Results {
		if db, ok := result.(*notionapi.Database); ok {
			if len(db.Title) > 0 && db.Title[0].Text != nil && db.Title[0].Text.Content == title {
				return notionapi.DatabaseID(db.ID), nil
			}
		}
	}

	dbParams := &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   c.parentType,
			PageID: c.parentID,
		},
		Title: richText(title),
		Properties: notionapi.PropertyConfigs{
			"Name": notionapi.TitlePropertyConfig{
				Type:  "title",
				Title: struct{}{},
			},
			"Slug": notionapi.RichTextPropertyConfig{
				Type:     "rich_text",
				RichText: struct{}{},
			},
			"Day": notionapi.RichTextPropertyConfig{
				Type:     "rich_text",
				RichText: struct{}{},
			},
		},
		IsInline: true,
	}

	db, err := c.client.Database().Create(ctx, dbParams)
	if err != nil {
		return "", fmt.Errorf("failed to create lesson database: %w", err)
	}
	logger.Info("Created lesson database", map[string]interface{}{"title": title})
	return notionapi.DatabaseID(db.ID), nil
}

// PublishLesson creates a database entry for l. An entry with the same title is
// left alone unless replace is set, in which case it is archived first.
func (c *Client) PublishLesson(ctx context.Context, db notionapi.DatabaseID, l Lesson, replace bool) (Outcome, error) {
	logger.Debug("Publishing lesson", map[string]interface{}{
		"title": l.Title,
		"slug":  l.Slug,
	})

	existing, err := c.findEntries(ctx, db, l.Title)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 && !replace {
		logger.Debug("Lesson already published", map[string]interface{}{"title": l.Title})
		return Skipped, nil
	}
	for _, p := range existing {
		_, err := c.client.Page().Update(ctx, notionapi.PageID(p.ID), &notionapi.PageUpdateRequest{
			Properties: notionapi.Properties{},
			Archived:   true,
		})
		if err != nil {
			return "", fmt.Errorf("failed to archive previous entry: %w", err)
		}
	}

	blocks := MarkdownToBlocks(l.Markdown)
	first, rest := splitBlocks(blocks)

	pageParams := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       "database_id",
			DatabaseID: db,
		},
		Properties: notionapi.Properties{
			"Name": notionapi.TitleProperty{Title: richText(l.Title)},
			"Slug": notionapi.RichTextProperty{RichText: richText(l.Slug)},
			"Day":  notionapi.RichTextProperty{RichText: richText(fmt.Sprintf("%02d", l.Day))},
		},
		Children: first,
	}

	page, err := c.createPage(ctx, pageParams)
	if err != nil {
		return "", err
	}

	for len(rest) > 0 {
		var batch []notionapi.Block
		batch, rest = splitBlocks(rest)
		_, err := c.client.Block().AppendChildren(ctx, notionapi.BlockID(page.ID), &notionapi.AppendBlockChildrenRequest{
			Children: batch,
		})
		if err != nil {
			return "", fmt.Errorf("failed to append page content: %w", err)
		}
	}

	if len(existing) > 0 {
		return Replaced, nil
	}
	return Created, nil
}

// createPage retries page creation, waiting retryDelay between attempts
func (c *Client) createPage(ctx context.Context, params *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	var page *notionapi.Page
	var err error

	for i := 0; i < c.attempts; i++ {
		page, err = c.client.Page().Create(ctx, params)
		if err == nil {
			return page, nil
		}
		if i < c.attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("failed to create page after %d attempts: %w", c.attempts, err)
}

// findEntries returns the live database entries whose Name equals title
func (c *Client) findEntries(ctx context.Context, db notionapi.DatabaseID, title string) ([]notionapi.Page, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Name",
			Title:    &notionapi.TextFilterCondition{Equals: title},
		},
	}
	resp, err := c.client.Database().Query(ctx, db, req)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson database: %w", err)
	}
	var out []notionapi.Page
	for _, p := range resp.Results {
		if !p.Archived {
			out = append(out, p)
		}
	}
	return out, nil
}

func splitBlocks(blocks []notionapi.Block) (head, tail []notionapi.Block) {
	if len(blocks) <= maxChildrenPerRequest {
		return blocks, nil
	}
	return blocks[:maxChildrenPerRequest], blocks[maxChildrenPerRequest:]
}
