package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"item-warehouse/internal/middleware"
	"item-warehouse/internal/model"
	"item-warehouse/internal/service"
	"item-warehouse/internal/utils"
	"item-warehouse/pkg/response"
)

type WarehouseController struct {
	service   service.WarehouseService
	validator *validator.Validate
}

func NewWarehouseController(service service.WarehouseService) *WarehouseController {
	return &WarehouseController{
		service:   service,
		validator: validator.New(),
	}
}

// CreateWarehouse godoc
// @Summary Register a new warehouse
// @Description Registers a warehouse descriptor and binds its physical storage
// @Tags warehouses
// @Accept json
// @Produce json
// @Param request body service.CreateWarehouseRequest true "Warehouse descriptor"
// @Success 201 {object} response.StandardResponse{data=model.Warehouse}
// @Failure 409 {object} response.StandardResponse
// @Failure 422 {object} response.StandardResponse
// @Router /api/v1/warehouses [post]
func (wc *WarehouseController) CreateWarehouse(c *gin.Context) {
	var req service.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		wc.sendError(c, utils.NewInvalidRequestError("Invalid request body: "+err.Error()))
		return
	}

	if err := wc.validator.Struct(&req); err != nil {
		wc.sendError(c, utils.NewInvalidRequestError(err.Error()))
		return
	}

	warehouse, err := wc.service.CreateWarehouse(c.Request.Context(), &req)
	if err != nil {
		middleware.RecordWarehouseOperation("create", "error")
		wc.sendError(c, err)
		return
	}

	middleware.RecordWarehouseOperation("create", "success")
	c.JSON(http.StatusCreated, response.SuccessResponse(warehouse, wc.getCorrelationID(c)))
}

// GetWarehouse godoc
// @Summary Get a warehouse by name
// @Description Retrieves the current descriptor of a registered warehouse
// @Tags warehouses
// @Produce json
// @Param name path string true "Warehouse name"
// @Success 200 {object} response.StandardResponse{data=model.Warehouse}
// @Failure 404 {object} response.StandardResponse
// @Router /api/v1/warehouses/{name} [get]
func (wc *WarehouseController) GetWarehouse(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		wc.sendError(c, utils.NewInvalidRequestError("Warehouse name is required"))
		return
	}

	warehouse, err := wc.service.GetWarehouse(c.Request.Context(), name)
	if err != nil {
		wc.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(warehouse, wc.getCorrelationID(c)))
}

// ListWarehouses godoc
// @Summary List warehouses
// @Description Retrieves one page of registered warehouses
// @Tags warehouses
// @Produce json
// @Param offset query int false "Number of warehouses to skip (default: 0)"
// @Param limit query int false "Maximum number of warehouses to return (default: 100, max: 1000)"
// @Success 200 {object} response.StandardResponse{data=service.ListWarehousesResponse}
// @Router /api/v1/warehouses [get]
func (wc *WarehouseController) ListWarehouses(c *gin.Context) {
	req := &service.ListWarehousesRequest{}

	page, err := parsePage(c)
	if err != nil {
		wc.sendError(c, err)
		return
	}
	req.PageRequest = page

	resp, err := wc.service.ListWarehouses(c.Request.Context(), req)
	if err != nil {
		wc.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(resp, wc.getCorrelationID(c)))
}

// GetWarehouseSchema godoc
// @Summary Get a warehouse's item schema
// @Description Retrieves just the ordered column mapping of a warehouse
// @Tags warehouses
// @Produce json
// @Param name path string true "Warehouse name"
// @Success 200 {object} response.StandardResponse{data=model.ItemSchema}
// @Failure 404 {object} response.StandardResponse
// @Router /api/v1/warehouses/{name}/schema [get]
func (wc *WarehouseController) GetWarehouseSchema(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		wc.sendError(c, utils.NewInvalidRequestError("Warehouse name is required"))
		return
	}

	warehouse, err := wc.service.GetWarehouse(c.Request.Context(), name)
	if err != nil {
		wc.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(warehouse.ItemSchema, wc.getCorrelationID(c)))
}

// DropWarehouse godoc
// @Summary Drop a warehouse
// @Description Removes the descriptor and discards bound storage and all items
// @Tags warehouses
// @Produce json
// @Param name path string true "Warehouse name"
// @Success 200 {object} response.StandardResponse
// @Failure 404 {object} response.StandardResponse
// @Router /api/v1/warehouses/{name} [delete]
func (wc *WarehouseController) DropWarehouse(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		wc.sendError(c, utils.NewInvalidRequestError("Warehouse name is required"))
		return
	}

	if err := wc.service.DropWarehouse(c.Request.Context(), name); err != nil {
		middleware.RecordWarehouseOperation("drop", "error")
		wc.sendError(c, err)
		return
	}

	middleware.RecordWarehouseOperation("drop", "success")
	c.JSON(http.StatusOK, response.SuccessMessageResponse("Warehouse dropped successfully", wc.getCorrelationID(c)))
}

// Helper methods

func (wc *WarehouseController) sendError(c *gin.Context, err error) {
	correlationID := wc.getCorrelationID(c)
	if appErr, ok := utils.AsAppError(err); ok {
		c.JSON(utils.GetErrorStatus(appErr), response.ErrorResponseFromAppError(appErr, correlationID))
		return
	}
	c.JSON(http.StatusInternalServerError, response.InternalServerErrorResponse(correlationID))
}

func (wc *WarehouseController) getCorrelationID(c *gin.Context) string {
	if correlationID, exists := c.Get(middleware.CorrelationIDKey); exists {
		if id, ok := correlationID.(string); ok {
			return id
		}
	}
	return ""
}

// parsePage reads offset/limit query parameters; non-numeric or negative
// values are rejected rather than silently ignored
func parsePage(c *gin.Context) (model.PageRequest, error) {
	var page model.PageRequest

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return page, utils.NewInvalidRequestError("offset must be a non-negative integer")
		}
		page.Offset = offset
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return page, utils.NewInvalidRequestError("limit must be a non-negative integer")
		}
		page.Limit = limit
	}

	return page, nil
}
