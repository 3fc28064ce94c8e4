package restyutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type Output interface {
	Write(id string, contents []byte)
}

// FilesystemOutput writes every response into its own file of a directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates dir (and clears what a previous run left in it).
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents []byte) {
	err := os.WriteFile(filepath.Join(o.directory, id), contents, 0600)
	if err != nil {
		slog.Warn("failed to write response dump", "id", id, "err", err)
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// DumpName turns a request url into a file name, ex. 3 and
// https://shop/collections/all?page=2 -> 003-shop_collections_all_page_2.
func DumpName(n uint64, link string) string {
	name := link
	parsed, err := url.Parse(link)
	if err == nil {
		name = parsed.Host + parsed.Path
		if parsed.RawQuery != "" {
			name += "_" + parsed.RawQuery
		}
	}
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	return fmt.Sprintf("%03d-%s", n, name)
}

// DumpResponses writes the body of every response client receives to
// output, a nil output leaves client untouched.
func DumpResponses(client *resty.Client, output Output) {
	if output == nil {
		return
	}
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&counter, 1)
		output.Write(DumpName(n, res.Request.URL), res.Body())
		return nil
	})
}
