package handlers

import (
	"errors"
	"net/http"

	"go-retail-pos/internal/backup"

	"github.com/gin-gonic/gin"
)

// BackupHandler serves the backup admin API.
type BackupHandler struct {
	Manager *backup.Manager
}

// --- POST: /api/backups ---
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	result, err := h.Manager.CreateBackup(backup.KindManual)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Backup failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Backup created", "backup": result})
}

// --- GET: /api/backups ---
func (h *BackupHandler) ListBackups(c *gin.Context) {
	entries, err := h.Manager.ListBackups()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list backups"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// --- POST: /api/backups/restore ---
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	var input struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, err := h.Manager.RestoreBackup(input.Path)
	if errors.Is(err, backup.ErrBackupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backup not found"})
		return
	}
	if err != nil {
		// A failure partway leaves a partially-restored state; the
		// pre_restore backup is the way back. Surface that clearly.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Restore failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Backup restored", "pre_restore_backup": result.PreRestoreBackup})
}

// --- POST: /api/backups/cleanup ---
func (h *BackupHandler) CleanupRetention(c *gin.Context) {
	if err := h.Manager.CleanupRetention(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Old backups pruned"})
}

// --- GET: /api/backups/config ---
func (h *BackupHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.Manager.Config())
}

// --- PUT: /api/backups/config ---
func (h *BackupHandler) UpdateConfig(c *gin.Context) {
	cfg := h.Manager.Config()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := h.Manager.UpdateConfig(cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save config"})
		return
	}
	c.JSON(http.StatusOK, h.Manager.Config())
}
