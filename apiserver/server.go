// Package apiserver is an in-memory reference implementation of the
// table/record/view API the engine consumes. It backs the dev harness in
// cmd/main.go and the store integration tests.
package apiserver

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/helper"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

type Server struct {
	log logger.LoggerI

	mu      sync.Mutex
	fields  map[string][]models.Field // by table id
	views   map[string][]models.View  // by table id
	records map[string][]models.Record

	tablePerms  map[string][]models.TablePermission
	viewPerms   map[string][]models.ViewPermission
	buttonPerms map[string]models.ButtonPermissionSet // by table id, current user
	members     map[string][]models.ReferenceMember

	// FailPatchRecordIds forces PATCH/DELETE on the listed record ids to
	// return 500, for partial-failure tests.
	FailPatchRecordIds  map[string]bool
	FailDeleteRecordIds map[string]bool
}

func New(log logger.LoggerI) *Server {
	return &Server{
		log:                 log,
		fields:              map[string][]models.Field{},
		views:               map[string][]models.View{},
		records:             map[string][]models.Record{},
		tablePerms:          map[string][]models.TablePermission{},
		viewPerms:           map[string][]models.ViewPermission{},
		buttonPerms:         map[string]models.ButtonPermissionSet{},
		members:             map[string][]models.ReferenceMember{},
		FailPatchRecordIds:  map[string]bool{},
		FailDeleteRecordIds: map[string]bool{},
	}
}

// SeedTable installs a fixture table. Views get defaulted configs normalized
// against the field set.
func (s *Server) SeedTable(tableId string, fields []models.Field, views []models.View, records []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range views {
		views[i].TableId = tableId
		views[i].Config = helper.NormalizeViewConfig(views[i].Config, fields)
	}
	s.fields[tableId] = fields
	s.views[tableId] = views
	s.records[tableId] = records
	s.buttonPerms[tableId] = models.ButtonPermissionSet{
		CanCreateRecord:  true,
		CanDeleteRecord:  true,
		CanImportRecords: true,
		CanExportRecords: true,
		CanManageFilters: true,
		CanManageSorts:   true,
	}
}

func (s *Server) SeedMembers(tableId string, members []models.ReferenceMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[tableId] = members
}

func (s *Server) SetButtonPermissions(tableId string, set models.ButtonPermissionSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttonPerms[tableId] = set
}

func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.GET("/tables/:tableId/fields", s.getFields)
	r.POST("/tables/:tableId/fields", s.createField)
	r.DELETE("/fields/:fieldId", s.deleteField)

	r.GET("/tables/:tableId/views", s.getViews)
	r.POST("/tables/:tableId/views", s.createView)
	r.PATCH("/views/:viewId", s.patchView)
	r.DELETE("/views/:viewId", s.deleteView)

	r.POST("/tables/:tableId/records/query", s.queryRecords)
	r.POST("/tables/:tableId/records", s.createRecord)
	r.PATCH("/records/:recordId", s.patchRecord)
	r.DELETE("/records/:recordId", s.deleteRecord)
	r.POST("/tables/:tableId/records/delete-by-query", s.deleteRecordsByQuery)

	r.GET("/tables/:tableId/permissions", s.getTablePermissions)
	r.PUT("/tables/:tableId/permissions", s.putTablePermissions)
	r.GET("/views/:viewId/permissions", s.getViewPermissions)
	r.PUT("/views/:viewId/permissions", s.putViewPermissions)
	r.GET("/tables/:tableId/button-permissions/me", s.getButtonPermissions)
	r.PUT("/tables/:tableId/button-permissions", s.putButtonPermissions)

	r.GET("/tables/:tableId/reference-members", s.getReferenceMembers)

	return r
}

func (s *Server) getFields(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.fields[c.Param("tableId")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "table not found"})
		return
	}
	c.JSON(http.StatusOK, fields)
}

func (s *Server) createField(c *gin.Context) {
	var req models.CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "unsupported field type"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableId := c.Param("tableId")
	if _, ok := s.fields[tableId]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "table not found"})
		return
	}

	field := models.Field{
		Id:      "fld_" + uuid.New().String(),
		TableId: tableId,
		Name:    req.Name,
		Type:    req.Type,
		Width:   req.Width,
		Options: req.Options,
	}
	s.fields[tableId] = append(s.fields[tableId], field)

	// New fields join every view's order list.
	views := s.views[tableId]
	for i := range views {
		views[i].Config.FieldOrderIds = append(views[i].Config.FieldOrderIds, field.Id)
	}

	c.JSON(http.StatusOK, field)
}

func (s *Server) deleteField(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fieldId := c.Param("fieldId")
	for tableId, fields := range s.fields {
		for i, field := range fields {
			if field.Id != fieldId {
				continue
			}
			s.fields[tableId] = append(fields[:i:i], fields[i+1:]...)

			views := s.views[tableId]
			for j := range views {
				views[j].Config = helper.PurgeFieldFromConfig(views[j].Config, fieldId)
			}
			for j := range s.records[tableId] {
				delete(s.records[tableId][j].Values, fieldId)
			}

			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "field not found"})
}

func (s *Server) getViews(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views, ok := s.views[c.Param("tableId")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "table not found"})
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) createView(c *gin.Context) {
	var req models.CreateViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableId := c.Param("tableId")
	if _, ok := s.views[tableId]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "table not found"})
		return
	}

	nextOrder := 0
	for _, view := range s.views[tableId] {
		if view.Config.Order >= nextOrder {
			nextOrder = view.Config.Order + 1
		}
	}

	cfg := models.DefaultViewConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	if req.Config == nil || req.Config.Order == 0 {
		cfg.Order = nextOrder
	}
	cfg = helper.NormalizeViewConfig(cfg, s.fields[tableId])

	viewType := req.Type
	if viewType == "" {
		viewType = models.ViewTypeGrid
	}

	view := models.View{
		Id:      "viw_" + uuid.New().String(),
		TableId: tableId,
		Name:    req.Name,
		Type:    viewType,
		Config:  cfg,
	}
	s.views[tableId] = append(s.views[tableId], view)
	c.JSON(http.StatusOK, view)
}

func (s *Server) patchView(c *gin.Context) {
	var req models.PatchViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	viewId := c.Param("viewId")
	for tableId, views := range s.views {
		for i := range views {
			if views[i].Id != viewId {
				continue
			}
			if req.Name != nil {
				views[i].Name = *req.Name
			}
			if req.Type != nil {
				views[i].Type = *req.Type
			}
			if req.Config != nil {
				views[i].Config = helper.NormalizeViewConfig(*req.Config, s.fields[tableId])
			}
			c.JSON(http.StatusOK, views[i])
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "view not found"})
}

func (s *Server) deleteView(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewId := c.Param("viewId")
	for tableId, views := range s.views {
		for i := range views {
			if views[i].Id != viewId {
				continue
			}
			if len(views) <= 1 {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "cannot delete the last view of a table"})
				return
			}
			s.views[tableId] = append(views[:i:i], views[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "view not found"})
}

func (s *Server) getTablePermissions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.tablePerms[c.Param("tableId")])
}

func (s *Server) putTablePermissions(c *gin.Context) {
	var perms []models.TablePermission
	if err := c.ShouldBindJSON(&perms); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tablePerms[c.Param("tableId")] = perms
	c.JSON(http.StatusOK, perms)
}

func (s *Server) getViewPermissions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.viewPerms[c.Param("viewId")])
}

func (s *Server) putViewPermissions(c *gin.Context) {
	var perms []models.ViewPermission
	if err := c.ShouldBindJSON(&perms); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewPerms[c.Param("viewId")] = perms
	c.JSON(http.StatusOK, perms)
}

func (s *Server) getButtonPermissions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.buttonPerms[c.Param("tableId")])
}

func (s *Server) putButtonPermissions(c *gin.Context) {
	var body struct {
		UserId string                     `json:"userId"`
		Set    models.ButtonPermissionSet `json:"set"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttonPerms[c.Param("tableId")] = body.Set
	c.Status(http.StatusOK)
}

func (s *Server) getReferenceMembers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.members[c.Param("tableId")])
}
