package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/brainiac-api/internal/handler/dto"
	apperrors "github.com/yourusername/brainiac-api/internal/pkg/errors"
	"github.com/yourusername/brainiac-api/internal/service"
	"github.com/yourusername/brainiac-api/internal/service/ranking"
)

// LeaderboardHandler обрабатывает HTTP-запросы лидерборда
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler создает новый обработчик лидерборда
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// List обрабатывает GET /leaderboard?page=N.
// Невалидный или отсутствующий page трактуется как первая страница,
// выход за границы — пустой массив со статусом 200.
func (h *LeaderboardHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	entries, err := h.leaderboardService.ListResults(page)
	if err != nil {
		log.Printf("[LeaderboardHandler] Ошибка при получении лидерборда: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error getting leaderboard"})
		return
	}

	c.JSON(http.StatusOK, dto.NewLeaderboardPage(entries))
}

// Submit обрабатывает POST /leaderboard
func (h *LeaderboardHandler) Submit(c *gin.Context) {
	var req dto.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.leaderboardService.SubmitResult(service.SubmitInput{
		Name:     req.Name,
		School:   req.School,
		Class:    req.Class,
		Score:    req.Score,
		TimeUsed: req.TimeUsed,
		Avatar:   req.Avatar,
	})
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewPlayerResponse("Score submitted successfully", player))
}

// Like обрабатывает POST /leaderboard/like.
// Принимает {playerId, liked} (переключение) или {id} (только лайк).
func (h *LeaderboardHandler) Like(c *gin.Context) {
	var req dto.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playerID := req.TargetID()
	if playerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing player id"})
		return
	}

	liked := true
	if req.Liked != nil {
		liked = *req.Liked
	}

	player, err := h.leaderboardService.SetLike(playerID, h.voterID(c, req.VoterID), liked)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPlayerResponse("Like status updated", player))
}

// Unlike обрабатывает POST /leaderboard/unlike
func (h *LeaderboardHandler) Unlike(c *gin.Context) {
	var req dto.UnlikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing player id"})
		return
	}

	player, err := h.leaderboardService.SetLike(req.ID, h.voterID(c, req.VoterID), false)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPlayerResponse("Like removed", player))
}

// GetPlayer обрабатывает GET /leaderboard/player/:id
func (h *LeaderboardHandler) GetPlayer(c *gin.Context) {
	playerID := c.MustGet("playerID").(uint) // Установлен middleware.ExtractUintParam

	player, err := h.leaderboardService.GetResult(playerID)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, player)
}

// Export обрабатывает GET /leaderboard/export?format=xlsx|csv —
// выгрузка полного ранжированного снапшота.
func (h *LeaderboardHandler) Export(c *gin.Context) {
	snapshot, err := h.leaderboardService.Snapshot()
	if err != nil {
		log.Printf("[LeaderboardHandler] Ошибка при получении снапшота для экспорта: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build leaderboard snapshot"})
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	switch format {
	case "csv":
		h.exportCSV(c, snapshot.Entries)
	case "xlsx":
		h.exportXLSX(c, snapshot.Entries)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported export format: %s", format)})
	}
}

var exportHeader = []string{"Rank", "Name", "School", "Class", "Score", "Time Used (sec)", "Stars", "Likes"}

func exportRow(e ranking.Entry) []string {
	return []string{
		strconv.Itoa(e.Rank),
		e.Name,
		e.School,
		e.Class,
		strconv.FormatFloat(e.Score, 'f', -1, 64),
		strconv.Itoa(e.TimeUsed),
		strconv.Itoa(e.Stars),
		strconv.Itoa(e.Likes),
	}
}

func (h *LeaderboardHandler) exportCSV(c *gin.Context, entries []ranking.Entry) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="leaderboard.csv"`)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(exportHeader); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи CSV: %v", err)
		return
	}
	for _, e := range entries {
		if err := w.Write(exportRow(e)); err != nil {
			log.Printf("[LeaderboardHandler] Ошибка записи CSV: %v", err)
			return
		}
	}
	w.Flush()
}

func (h *LeaderboardHandler) exportXLSX(c *gin.Context, entries []ranking.Entry) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Leaderboard"
	index, err := f.NewSheet(sheet)
	if err != nil {
		log.Printf("[LeaderboardHandler] Ошибка создания листа: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export file"})
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for row, e := range entries {
		for col, value := range exportRow(e) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи XLSX: %v", err)
	}
}

func (h *LeaderboardHandler) handleLeaderboardError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Missing required fields",
			"missing_fields": validationErr.Fields,
		})
		return
	}
	if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
		return
	}

	log.Printf("[LeaderboardHandler] Внутренняя ошибка: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// voterID определяет идентичность зрителя для голосов: явный voter_id из
// тела запроса, иначе IP клиента. Игроки не аутентифицируются, поэтому
// идентичность best-effort.
func (h *LeaderboardHandler) voterID(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return "ip:" + c.ClientIP()
}
