package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// CreateProjectRequest defines project creation inputs.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateCanvasRequest defines canvas creation inputs.
type CreateCanvasRequest struct {
	Name string `json:"name"`
}

// ListProjects returns the caller's projects in server order.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project and returns the server-assigned record.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	var proj Project
	if err := c.doJSON(ctx, http.MethodPost, "/api/projects", req, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// ListDataSources returns a project's uploaded CSV files.
func (c *Client) ListDataSources(ctx context.Context, projectID int64) ([]DataSource, error) {
	var sources []DataSource
	path := fmt.Sprintf("/api/projects/%d/data-sources", projectID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// UploadCSV uploads a CSV file to a project as a multipart form.
func (c *Client) UploadCSV(ctx context.Context, projectID int64, fileName string, file io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing multipart form: %w", err)
	}

	path := fmt.Sprintf("/api/projects/%d/upload-csv", projectID)
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req, nil)
}

// ListCanvases returns a project's canvases.
func (c *Client) ListCanvases(ctx context.Context, projectID int64) ([]Canvas, error) {
	var canvases []Canvas
	path := fmt.Sprintf("/api/projects/%d/canvases", projectID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &canvases); err != nil {
		return nil, err
	}
	return canvases, nil
}

// CreateCanvas creates a canvas in a project.
func (c *Client) CreateCanvas(ctx context.Context, projectID int64, req CreateCanvasRequest) (*Canvas, error) {
	var canvas Canvas
	path := fmt.Sprintf("/api/projects/%d/canvases", projectID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &canvas); err != nil {
		return nil, err
	}
	return &canvas, nil
}
