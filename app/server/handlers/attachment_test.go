package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonsunghun/blog-back-sub000/app/server/models"
)

func TestRemoveAttachmentFilesRemovesAll(t *testing.T) {
	removed := []string{}
	attachments := []models.Attachment{
		{StoredName: "a.bin"},
		{StoredName: "b.bin"},
		{StoredName: "c.bin"},
	}

	err := removeAttachmentFiles(attachments, "/uploads", func(path string) error {
		removed = append(removed, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("/uploads", "a.bin"),
		filepath.Join("/uploads", "b.bin"),
		filepath.Join("/uploads", "c.bin"),
	}, removed)
}

func TestRemoveAttachmentFilesAbortsOnFirstFailure(t *testing.T) {
	// 中途失败立即中止，之后的文件不再动
	attachments := make([]models.Attachment, 6)
	for i := range attachments {
		attachments[i] = models.Attachment{StoredName: fmt.Sprintf("%d.bin", i)}
	}
	failAt := filepath.Join("/uploads", "3.bin")

	removed := []string{}
	err := removeAttachmentFiles(attachments, "/uploads", func(path string) error {
		if path == failAt {
			return fmt.Errorf("disk on fire")
		}
		removed = append(removed, path)
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3.bin")
	// 失败点之前的都删了，之后的一个没碰
	assert.Len(t, removed, 3)
	assert.NotContains(t, removed, filepath.Join("/uploads", "4.bin"))
	assert.NotContains(t, removed, filepath.Join("/uploads", "5.bin"))
}

func TestRemoveAttachmentFilesToleratesMissingFile(t *testing.T) {
	// 文件本体已经没了也算删除成功，重试能走完全程
	removed := []string{}
	attachments := []models.Attachment{
		{StoredName: "gone.bin"},
		{StoredName: "still-here.bin"},
	}

	err := removeAttachmentFiles(attachments, "/uploads", func(path string) error {
		if filepath.Base(path) == "gone.bin" {
			return os.ErrNotExist
		}
		removed = append(removed, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("/uploads", "still-here.bin")}, removed)
}

func TestRemoveAttachmentFilesEmpty(t *testing.T) {
	err := removeAttachmentFiles(nil, "/uploads", func(string) error {
		t.Fatal("remove should not be called")
		return nil
	})
	assert.NoError(t, err)
}
