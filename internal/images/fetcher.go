// Package images rapatrie les photos des signalements depuis leurs URLs
// d'origine vers un stockage local durable.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalImageRef référence une image après tentative de rapatriement.
// Une URL vide n'est pas une erreur: la référence revient non rapatriée
// (LocalPath vide) pour que l'appelant puisse quand même persister le nom.
type LocalImageRef struct {
	RemoteURL string
	LocalPath string
	FileName  string
}

// Fetched reports whether a local copy exists.
func (r LocalImageRef) Fetched() bool { return r.LocalPath != "" }

// InvalidURLError: l'URL fournie n'est pas exploitable.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("url image invalide %q: %s", e.URL, e.Reason)
}

// DownloadError: le téléchargement ou l'écriture locale a échoué. Fatal pour
// l'import du signalement porteur, jamais pour le lot.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("téléchargement image %q: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Fetcher télécharge les images sous un répertoire racine configuré.
type Fetcher struct {
	Root   string
	Client *http.Client
}

func NewFetcher(root string) *Fetcher {
	return &Fetcher{Root: root, Client: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch télécharge remoteURL dans Root sous un nom
// {ownerID}_{horodatage}_{nom d'origine}, stable face aux réimports répétés.
// URL vide: renvoie une référence non rapatriée avec le nom fourni.
func (f *Fetcher) Fetch(ctx context.Context, remoteURL string, ownerID uint, fileName string) (LocalImageRef, error) {
	ref := LocalImageRef{RemoteURL: remoteURL, FileName: fileName}
	if remoteURL == "" {
		return ref, nil
	}

	parsed, err := url.Parse(remoteURL)
	if err != nil {
		return ref, &InvalidURLError{URL: remoteURL, Reason: err.Error()}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ref, &InvalidURLError{URL: remoteURL, Reason: "schéma non supporté"}
	}

	name := fileName
	if name == "" {
		name = path.Base(parsed.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = uuid.NewString()
	}
	name = filepath.Base(name) // neutralise tout composant de chemin
	local := filepath.Join(f.Root, fmt.Sprintf("%d_%d_%s", ownerID, time.Now().UnixNano(), name))

	if err := os.MkdirAll(f.Root, 0o755); err != nil {
		return ref, &DownloadError{URL: remoteURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return ref, &InvalidURLError{URL: remoteURL, Reason: err.Error()}
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return ref, &DownloadError{URL: remoteURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ref, &DownloadError{URL: remoteURL, Err: fmt.Errorf("statut HTTP %d", resp.StatusCode)}
	}

	out, err := os.Create(local)
	if err != nil {
		return ref, &DownloadError{URL: remoteURL, Err: err}
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(local)
		return ref, &DownloadError{URL: remoteURL, Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(local)
		return ref, &DownloadError{URL: remoteURL, Err: err}
	}

	ref.LocalPath = local
	if ref.FileName == "" {
		ref.FileName = name
	}
	return ref, nil
}
