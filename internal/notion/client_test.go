package notion_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/jomei/notionapi"

	"github.com/takak2166/curriculum-tools/internal/notion"
	"github.com/takak2166/curriculum-tools/internal/notion/mock_notion"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		apiKey      string
		parentID    string
		expectError bool
	}{
		{
			name:     "Valid configuration",
			apiKey:   "test_key",
			parentID: "test_page_id",
		},
		{
			name:        "Missing API key",
			parentID:    "test_page_id",
			expectError: true,
		},
		{
			name:        "Missing parent page ID",
			apiKey:      "test_key",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := notion.New(tt.apiKey, tt.parentID)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if client == nil {
					t.Error("Expected client, got nil")
				}
			}
		})
	}
}

type mocks struct {
	client   *mock_notion.MockNotionClient
	page     *mock_notion.MockPageService
	search   *mock_notion.MockSearchService
	database *mock_notion.MockDatabaseService
	block    *mock_notion.MockBlockService
}

func newMocks(t *testing.T) (*notion.Client, mocks) {
	ctrl := gomock.NewController(t)
	m := mocks{
		client:   mock_notion.NewMockNotionClient(ctrl),
		page:     mock_notion.NewMockPageService(ctrl),
		search:   mock_notion.NewMockSearchService(ctrl),
		database: mock_notion.NewMockDatabaseService(ctrl),
		block:    mock_notion.NewMockBlockService(ctrl),
	}
	m.client.EXPECT().Page().Return(m.page).AnyTimes()
	m.client.EXPECT().Search().Return(m.search).AnyTimes()
	m.client.EXPECT().Database().Return(m.database).AnyTimes()
	m.client.EXPECT().Block().Return(m.block).AnyTimes()
	return notion.NewWithClient(m.client, "parent_page", 0), m
}

func TestEnsureLibrary(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		setupMocks func(m mocks)
		wantID     notionapi.DatabaseID
		wantErr    bool
	}{
		"Existing database": {
			setupMocks: func(m mocks) {
				m.search.EXPECT().Do(ctx, gomock.Any()).Return(&notionapi.SearchResponse{
					Results: []notionapi.Object{
						&notionapi.Database{
							ID:    "other_db",
							Title: []notionapi.RichText{{Text: &notionapi.Text{Content: "Lessons archive"}}},
						},
						&notionapi.Database{
							ID:    "lesson_db",
							Title: []notionapi.RichText{{Text: &notionapi.Text{Content: "Lessons"}}},
						},
					},
				}, nil)
			},
			wantID: "lesson_db",
		},
		"Create database": {
			setupMocks: func(m mocks) {
				m.search.EXPECT().Do(ctx, gomock.Any()).Return(&notionapi.SearchResponse{}, nil)
				m.database.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
					func(_ context.Context, req *notionapi.DatabaseCreateRequest) (*notionapi.Database, error) {
						if req.Parent.PageID != "parent_page" || !req.IsInline {
							t.Errorf("unexpected parent %+v", req.Parent)
						}
						for _, name := range []string{"Name", "Slug", "Day"} {
							if _, ok := req.Properties[name]; !ok {
								t.Errorf("database is missing property %q", name)
							}
						}
						return &notionapi.Database{ID: "new_db"}, nil
					})
			},
			wantID: "new_db",
		},
		"Search error": {
			setupMocks: func(m mocks) {
				m.search.EXPECT().Do(ctx, gomock.Any()).Return(nil, errors.New("search failed"))
			},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client, m := newMocks(t)
			tt.setupMocks(m)

			id, err := client.EnsureLibrary(ctx, "Lessons")
			if (err != nil) != tt.wantErr {
				t.Fatalf("EnsureLibrary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Errorf("EnsureLibrary() = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestPublishLesson(t *testing.T) {
	ctx := context.Background()
	lesson := notion.Lesson{
		Title:    "Intro",
		Slug:     "day-01-intro",
		Day:      1,
		Markdown: "Hello.\n",
	}
	existing := &notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{{ID: "old_page"}},
	}

	tests := map[string]struct {
		replace    bool
		setupMocks func(m mocks)
		want       notion.Outcome
		wantErr    bool
	}{
		"New lesson": {
			setupMocks: func(m mocks) {
				m.database.EXPECT().Query(ctx, notionapi.DatabaseID("db"), gomock.Any()).Return(&notionapi.DatabaseQueryResponse{}, nil)
				m.page.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
					func(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
						if req.Parent.DatabaseID != "db" {
							t.Errorf("unexpected parent %+v", req.Parent)
						}
						title, ok := req.Properties["Name"].(notionapi.TitleProperty)
						if !ok || len(title.Title) != 1 || title.Title[0].Text.Content != "Intro" {
							t.Errorf("unexpected Name property %+v", req.Properties["Name"])
						}
						day, ok := req.Properties["Day"].(notionapi.RichTextProperty)
						if !ok || day.RichText[0].Text.Content != "01" {
							t.Errorf("unexpected Day property %+v", req.Properties["Day"])
						}
						if len(req.Children) != 1 {
							t.Errorf("expected 1 block, got %d", len(req.Children))
						}
						return &notionapi.Page{ID: "new_page"}, nil
					})
			},
			want: notion.Created,
		},
		"Existing lesson is skipped": {
			setupMocks: func(m mocks) {
				m.database.EXPECT().Query(ctx, notionapi.DatabaseID("db"), gomock.Any()).Return(existing, nil)
			},
			want: notion.Skipped,
		},
		"Archived entries are ignored": {
			setupMocks: func(m mocks) {
				m.database.EXPECT().Query(ctx, notionapi.DatabaseID("db"), gomock.Any()).Return(&notionapi.DatabaseQueryResponse{
					Results: []notionapi.Page{{ID: "old_page", Archived: true}},
				}, nil)
				m.page.EXPECT().Create(ctx, gomock.Any()).Return(&notionapi.Page{ID: "new_page"}, nil)
			},
			want: notion.Created,
		},
		"Existing lesson is replaced": {
			replace: true,
			setupMocks: func(m mocks) {
				m.database.EXPECT().Query(ctx, notionapi.DatabaseID("db"), gomock.Any()).Return(existing, nil)
				gomock.InOrder(
					m.page.EXPECT().Update(ctx, notionapi.PageID("old_page"), gomock.Any()).DoAndReturn(
						func(_ context.Context, _ notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
							if !req.Archived {
								t.Error("previous entry should be archived")
							}
							return &notionapi.Page{ID: "old_page", Archived: true}, nil
						}),
					m.page.EXPECT().Create(ctx, gomock.Any()).Return(&notionapi.Page{ID: "new_page"}, nil),
				)
			},
			want: notion.Replaced,
		},
		"Retry page creation": {
			setupMocks: func(m mocks) {
				m.database.EXPECT().Query(ctx, notionapi.DatabaseID("db"), gomock.Any()).Return(&notionapi.DatabaseQueryResponse{}, nil)
				gomock.InOrder(
					m.page.EXPECT().Create(ctx, gomock.Any()).Return(nil, errors.New("rate limited")),
					m.page.EXPECT().Create(ctx, gomock.Any()).Return(nil, errors.New("rate limited")),
					m.page.EXPECT().Create(ctx, gomock.Any()).Return(&notionapi.Page{ID: "new_page"}, nil),
				)
			},
			want: notion.Created,
		},
		"Page creation fails": {
			setupMocks: func(m mocks) {
				m.database.EXPECT().Query(ctx, notionapi.DatabaseID("db"), gomock.Any()).Return(&notionapi.DatabaseQueryResponse{}, nil)
				m.page.EXPECT().Create(ctx, gomock.Any()).Return(nil, errors.New("unavailable")).Times(3)
			},
			wantErr: true,
		},
		"Query fails": {
			setupMocks: func(m mocks) {
				m.database.EXPECT().Query(ctx, notionapi.DatabaseID("db"), gomock.Any()).Return(nil, errors.New("unauthorized"))
			},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client, m := newMocks(t)
			tt.setupMocks(m)

			got, err := client.PublishLesson(ctx, "db", lesson, tt.replace)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PublishLesson() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PublishLesson() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublishLessonAppendsLongPages(t *testing.T) {
	ctx := context.Background()
	client, m := newMocks(t)

	lesson := notion.Lesson{
		Title:    "Long",
		Slug:     "day-02-long",
		Day:      2,
		Markdown: strings.Repeat("paragraph\n\n", 250),
	}

	m.database.EXPECT().Query(ctx, gomock.Any(), gomock.Any()).Return(&notionapi.DatabaseQueryResponse{}, nil)
	m.page.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
			if len(req.Children) != 100 {
				t.Errorf("create request has %d blocks, want 100", len(req.Children))
			}
			return &notionapi.Page{ID: "long_page"}, nil
		})

	var appended []int
	m.block.EXPECT().AppendChildren(ctx, notionapi.BlockID("long_page"), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ notionapi.BlockID, req *notionapi.AppendBlockChildrenRequest) (*notionapi.AppendBlockChildrenResponse, error) {
			appended = append(appended, len(req.Children))
			return &notionapi.AppendBlockChildrenResponse{}, nil
		}).Times(2)

	if _, err := client.PublishLesson(ctx, "db", lesson, false); err != nil {
		t.Fatalf("PublishLesson() error = %v", err)
	}
	if len(appended) != 2 || appended[0] != 100 || appended[1] != 50 {
		t.Errorf("appended batches = %v, want [100 50]", appended)
	}
}
