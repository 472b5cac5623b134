package handler

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/eventreg-api/internal/domain/entity"
)

// exportColumns is the fixed sheet layout consumed by downstream tooling:
// eleven leading columns, then four repeating member groups. Do not reorder
// without migrating every reader.
var exportColumns = buildExportColumns()

func buildExportColumns() []string {
	cols := []string{
		"S.No", "Timestamp", "Registration ID", "Ticket Number", "Team Name",
		"Leader Name", "Leader Email", "Leader Phone", "Leader Branch", "Leader Section",
		"Team Size",
	}
	for i := 2; i <= entity.MaxTeamSize; i++ {
		cols = append(cols,
			fmt.Sprintf("Member %d Name", i),
			fmt.Sprintf("Member %d Email", i),
			fmt.Sprintf("Member %d Phone", i),
			fmt.Sprintf("Member %d Branch", i),
			fmt.Sprintf("Member %d Section", i),
		)
	}
	return cols
}

// ExportRegistrations streams every registration as an xlsx download.
// Requires an admin bearer token (enforced by the route middleware).
func (h *ActionHandler) ExportRegistrations(c *gin.Context) {
	regs, err := h.registrationService.ListRegistrations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("registrations-%s", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Registrations"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ExportHandler] failed to create stream writer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create excel file"})
		return
	}

	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		log.Printf("[ExportHandler] failed to write header row: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write excel file"})
		return
	}

	for i := range regs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, exportRow(&regs[i])); err != nil {
			log.Printf("[ExportHandler] failed to write row %d: %v", i+2, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write excel file"})
			return
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ExportHandler] failed to flush stream writer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write excel file"})
		return
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ExportHandler] failed to send excel file: %v", err)
	}
}

func exportRow(reg *entity.Registration) []interface{} {
	row := []interface{}{
		reg.SerialNo, reg.Timestamp, reg.RegistrationID, reg.TicketNumber, reg.TeamName,
		reg.LeaderName, reg.LeaderEmail, reg.LeaderPhone, reg.LeaderBranch, reg.LeaderSection,
		reg.TeamSize,
	}
	// Always emit all member groups so the column contract stays fixed.
	for i := 0; i < entity.MaxTeamSize-1; i++ {
		if i < len(reg.Members) {
			m := reg.Members[i]
			row = append(row, m.Name, m.Email, m.Phone, m.Branch, m.Section)
		} else {
			row = append(row, "", "", "", "", "")
		}
	}
	return row
}
