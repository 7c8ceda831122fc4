package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"video-kb/internal/models"
	"video-kb/shared/logger"
)

// FileStore keeps the whole knowledge base in one JSON file, rewritten on
// every change. Suitable for small local collections.
type FileStore struct {
	filePath string
	videos   []*models.Video
	byIdent  map[string]*models.Video
	nextID   int64
	mu       sync.RWMutex
	log      *logger.Logger
}

type fileData struct {
	NextID int64           `json:"next_id"`
	Videos []*models.Video `json:"videos"`
}

func NewFileStore(filePath string, log *logger.Logger) (*FileStore, error) {
	if dir := filepath.Dir(filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	fs := &FileStore{
		filePath: filePath,
		byIdent:  make(map[string]*models.Video),
		nextID:   1,
		log:      log,
	}
	if err := fs.load(); err != nil {
		return nil, fmt.Errorf("failed to load video store: %w", err)
	}
	return fs, nil
}

func (fs *FileStore) Insert(_ context.Context, v *models.Video) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.byIdent[v.Identifier]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, v.Identifier)
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	stored := copyVideo(v)
	stored.ID = fs.nextID
	fs.videos = append(fs.videos, stored)
	fs.byIdent[stored.Identifier] = stored
	fs.nextID++

	if err := fs.save(); err != nil {
		fs.videos = fs.videos[:len(fs.videos)-1]
		delete(fs.byIdent, stored.Identifier)
		fs.nextID--
		return err
	}

	v.ID = stored.ID
	return nil
}

func (fs *FileStore) FindByIdentifier(_ context.Context, identifier string) (*models.Video, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	v, ok := fs.byIdent[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	return copyVideo(v), nil
}

func (fs *FileStore) ListAll(_ context.Context) ([]*models.Video, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make([]*models.Video, 0, len(fs.videos))
	for _, v := range fs.videos {
		out = append(out, copyVideo(v))
	}
	return out, nil
}

func (fs *FileStore) DeleteByID(_ context.Context, id int64) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for i, v := range fs.videos {
		if v.ID != id {
			continue
		}
		previous := fs.videos
		fs.videos = append(append([]*models.Video{}, fs.videos[:i]...), fs.videos[i+1:]...)
		delete(fs.byIdent, v.Identifier)
		if err := fs.save(); err != nil {
			fs.videos = previous
			fs.byIdent[v.Identifier] = v
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (fs *FileStore) Close() error {
	return nil
}

// load reads the store file. A missing file is an empty store.
func (fs *FileStore) load() error {
	file, err := os.Open(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	var data fileData
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode store data: %w", err)
	}

	for _, v := range data.Videos {
		fs.videos = append(fs.videos, v)
		fs.byIdent[v.Identifier] = v
		if v.ID >= fs.nextID {
			fs.nextID = v.ID + 1
		}
	}
	if data.NextID > fs.nextID {
		fs.nextID = data.NextID
	}
	fs.log.Info("File store loaded", "path", fs.filePath, "videos", len(fs.videos))
	return nil
}

// save writes to a temp file and renames it over the store file.
func (fs *FileStore) save() error {
	tmp := fs.filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fileData{NextID: fs.nextID, Videos: fs.videos}); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode store data: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, fs.filePath); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func copyVideo(v *models.Video) *models.Video {
	c := *v
	c.Chunks = append([]string(nil), v.Chunks...)
	return &c
}
