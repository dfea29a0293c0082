package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/PaulBabatuyi/FileDrop/internal/service"
	"github.com/PaulBabatuyi/FileDrop/internal/storage"
	"github.com/PaulBabatuyi/FileDrop/internal/view"
	"github.com/dustin/go-humanize"
)

const defaultServer = "http://localhost:8080"

type FileClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewFileClient(baseURL, apiKey string) *FileClient {
	return &FileClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

type listedFile struct {
	models.FileRecord
	Kind models.FileType `json:"kind"`
}

type uploadResult struct {
	Name  string      `json:"name"`
	File  *listedFile `json:"file"`
	Error string      `json:"error"`
}

// UploadFiles sends every path in one multipart request.
func (fc *FileClient) UploadFiles(ctx context.Context, paths []string) ([]uploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}

		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     "files",
			"filename": filepath.Base(p),
		}))
		h.Set("Content-Type", service.DetectMediaType(content))
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var resp struct {
		Results []uploadResult `json:"results"`
	}
	err := fc.do(ctx, http.MethodPost, "/api/upload", mw.FormDataContentType(), &body, &resp)
	if resp.Results != nil {
		// partial failures come back per file
		return resp.Results, nil
	}
	return nil, err
}

func (fc *FileClient) ListFiles(ctx context.Context, typeFilter, sortKey, direction string) ([]listedFile, error) {
	q := url.Values{}
	if typeFilter != "" {
		q.Set("type", typeFilter)
	}
	if sortKey != "" {
		q.Set("sort", sortKey)
	}
	if direction != "" {
		q.Set("direction", direction)
	}

	var resp struct {
		Files []listedFile `json:"files"`
	}
	if err := fc.do(ctx, http.MethodGet, "/api/files?"+q.Encode(), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return resp.Files, nil
}

func (fc *FileClient) Types(ctx context.Context) ([]string, error) {
	var resp struct {
		Types []string `json:"types"`
	}
	if err := fc.do(ctx, http.MethodGet, "/api/types", "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list types: %w", err)
	}
	return resp.Types, nil
}

func (fc *FileClient) SetStored(ctx context.Context, fileID string, stored bool) (*listedFile, error) {
	body, _ := json.Marshal(map[string]bool{"stored": stored})
	var f listedFile
	if err := fc.do(ctx, http.MethodPut, "/api/files/"+url.PathEscape(fileID)+"/store", "application/json", bytes.NewReader(body), &f); err != nil {
		return nil, fmt.Errorf("failed to update file: %w", err)
	}
	return &f, nil
}

func (fc *FileClient) DeleteFile(ctx context.Context, fileID string) error {
	if err := fc.do(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(fileID), "", nil, nil); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (fc *FileClient) Usage(ctx context.Context) (*view.StorageSummary, error) {
	var s view.StorageSummary
	if err := fc.do(ctx, http.MethodGet, "/api/storage", "", nil, &s); err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	return &s, nil
}

// DownloadFile saves the decoded content of fileID into out under its
// original name.
func (fc *FileClient) DownloadFile(ctx context.Context, fileID string, out *storage.FilesystemStorage) (string, error) {
	req, err := fc.newRequest(ctx, http.MethodGet, "/api/files/"+url.PathEscape(fileID)+"/download", "", nil)
	if err != nil {
		return "", err
	}
	resp, err := fc.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	name := fileID
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to receive file: %w", err)
	}
	return out.Save(name, content)
}

func (fc *FileClient) newRequest(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, fc.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if fc.apiKey != "" {
		req.Header.Set("X-API-Key", fc.apiKey)
	}
	return req, nil
}

// do sends a request and decodes a JSON response into out. Non-2xx
// answers become errors; out is still filled when the body decodes.
func (fc *FileClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := fc.newRequest(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	resp, err := fc.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if jerr := json.Unmarshal(data, out); jerr != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", jerr)
		}
	}
	if resp.StatusCode >= 300 {
		return errorFromBody(resp.Status, data)
	}
	return nil
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	return errorFromBody(resp.Status, data)
}

func errorFromBody(status string, data []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return fmt.Errorf("%s: %s", status, e.Error)
	}
	return errors.New(status)
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: client [-server URL] [-key KEY] <command> [args]

commands:
  upload <file>...                      upload files
  list [-type T] [-sort K] [-dir D]     list files (sort: name|date|type|size, dir: asc|desc)
  types                                 list type filters
  store <id> | unstore <id>             pin or unpin a file
  delete <id>                           delete an unstored file
  download [-o DIR] <id>                save a file locally
  usage                                 show storage usage
`)
}

func main() {
	log.SetFlags(0)
	serverURL := flag.String("server", envOr("FILEDROP_URL", defaultServer), "FileDrop server URL")
	apiKey := flag.String("key", os.Getenv("FILEDROP_API_KEY"), "API key")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	client := NewFileClient(*serverURL, *apiKey)
	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]

	if err := runCommand(ctx, client, cmd, args); err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func runCommand(ctx context.Context, client *FileClient, cmd string, args []string) error {
	switch cmd {
	case "upload":
		if len(args) == 0 {
			return errors.New("no files given")
		}
		results, err := client.UploadFiles(ctx, args)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if r.Error != "" {
				failed++
				fmt.Printf("✗ %s: %s\n", r.Name, r.Error)
				continue
			}
			fmt.Printf("✓ Uploaded: %s (ID: %s, %s)\n", r.File.Name, r.File.ID, humanize.IBytes(uint64(r.File.Size)))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d uploads failed", failed, len(results))
		}
		return nil

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		typeFilter := fs.String("type", "", "primary media type filter")
		sortKey := fs.String("sort", "", "sort key")
		direction := fs.String("dir", "", "sort direction")
		fs.Parse(args)

		files, err := client.ListFiles(ctx, *typeFilter, *sortKey, *direction)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tKIND\tSIZE\tUPLOADED\tSTORED")
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
				f.ID, f.Name, f.Kind, humanize.IBytes(uint64(f.Size)), humanize.Time(f.UploadedAt), f.Stored)
		}
		return w.Flush()

	case "types":
		types, err := client.Types(ctx)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(types, "\n"))
		return nil

	case "store", "unstore":
		if len(args) != 1 {
			return errors.New("expected one file id")
		}
		f, err := client.SetStored(ctx, args[0], cmd == "store")
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s stored=%t\n", f.Name, f.Stored)
		return nil

	case "delete":
		if len(args) != 1 {
			return errors.New("expected one file id")
		}
		if err := client.DeleteFile(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("✓ File deleted successfully")
		return nil

	case "download":
		fs := flag.NewFlagSet("download", flag.ExitOnError)
		dir := fs.String("o", ".", "output directory")
		fs.Parse(args)
		if fs.NArg() != 1 {
			return errors.New("expected one file id")
		}
		out, err := storage.NewFilesystemStorage(*dir)
		if err != nil {
			return err
		}
		path, err := client.DownloadFile(ctx, fs.Arg(0), out)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Saved %s\n", path)
		return nil

	case "usage":
		s, err := client.Usage(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s used of %s (%.1f%%, %s), %s free\n",
			s.UsedHuman, humanize.IBytes(uint64(s.Total)), s.Fraction*100, s.Tier, s.FreeHuman)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
