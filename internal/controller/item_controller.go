package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"item-warehouse/internal/middleware"
	"item-warehouse/internal/service"
	"item-warehouse/internal/utils"
	"item-warehouse/pkg/response"
)

type ItemController struct {
	service service.ItemService
}

func NewItemController(service service.ItemService) *ItemController {
	return &ItemController{
		service: service,
	}
}

// InsertItem godoc
// @Summary Insert an item
// @Description Validates a record against the warehouse schema and persists it
// @Tags items
// @Accept json
// @Produce json
// @Param name path string true "Warehouse name"
// @Param record body object true "Item record"
// @Success 201 {object} response.StandardResponse{data=model.Item}
// @Failure 404 {object} response.StandardResponse
// @Failure 409 {object} response.StandardResponse
// @Failure 422 {object} response.StandardResponse
// @Router /api/v1/warehouses/{name}/items [post]
func (ic *ItemController) InsertItem(c *gin.Context) {
	var record map[string]interface{}
	if err := c.ShouldBindJSON(&record); err != nil {
		ic.sendError(c, utils.NewInvalidRequestError("Invalid request body: "+err.Error()))
		return
	}

	item, err := ic.service.InsertItem(c.Request.Context(), c.Param("name"), record)
	if err != nil {
		ic.sendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.SuccessResponse(item, ic.getCorrelationID(c)))
}

// QueryItems godoc
// @Summary Query items
// @Description Retrieves one page of items with optional exact-match filters
// @Tags items
// @Produce json
// @Param name path string true "Warehouse name"
// @Param offset query int false "Number of items to skip (default: 0)"
// @Param limit query int false "Maximum number of items to return (default: 100, max: 1000)"
// @Success 200 {object} response.StandardResponse{data=service.QueryItemsResponse}
// @Failure 404 {object} response.StandardResponse
// @Router /api/v1/warehouses/{name}/items [get]
func (ic *ItemController) QueryItems(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		ic.sendError(c, err)
		return
	}

	req := &service.QueryItemsRequest{
		PageRequest: page,
		Filters:     filterParams(c),
	}

	resp, err := ic.service.QueryItems(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		ic.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(resp, ic.getCorrelationID(c)))
}

// GetItem godoc
// @Summary Get an item by primary key
// @Description Retrieves one item; composite keys are comma-separated in declaration order
// @Tags items
// @Produce json
// @Param name path string true "Warehouse name"
// @Param key path string true "Primary-key value(s), comma-separated"
// @Success 200 {object} response.StandardResponse{data=model.Item}
// @Failure 404 {object} response.StandardResponse
// @Router /api/v1/warehouses/{name}/items/{key} [get]
func (ic *ItemController) GetItem(c *gin.Context) {
	item, err := ic.service.GetItem(c.Request.Context(), c.Param("name"), splitKey(c.Param("key")))
	if err != nil {
		ic.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(item, ic.getCorrelationID(c)))
}

// UpdateItem godoc
// @Summary Update an item
// @Description Applies a partial update to non-key columns of one item
// @Tags items
// @Accept json
// @Produce json
// @Param name path string true "Warehouse name"
// @Param key path string true "Primary-key value(s), comma-separated"
// @Param patch body object true "Partial record"
// @Success 200 {object} response.StandardResponse{data=model.Item}
// @Failure 404 {object} response.StandardResponse
// @Failure 409 {object} response.StandardResponse
// @Failure 422 {object} response.StandardResponse
// @Router /api/v1/warehouses/{name}/items/{key} [put]
func (ic *ItemController) UpdateItem(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		ic.sendError(c, utils.NewInvalidRequestError("Invalid request body: "+err.Error()))
		return
	}

	item, err := ic.service.UpdateItem(c.Request.Context(), c.Param("name"), splitKey(c.Param("key")), patch)
	if err != nil {
		ic.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(item, ic.getCorrelationID(c)))
}

// DeleteItem godoc
// @Summary Delete an item
// @Description Removes one item by primary key; an absent key reports NOT_FOUND
// @Tags items
// @Produce json
// @Param name path string true "Warehouse name"
// @Param key path string true "Primary-key value(s), comma-separated"
// @Success 200 {object} response.StandardResponse
// @Failure 404 {object} response.StandardResponse
// @Router /api/v1/warehouses/{name}/items/{key} [delete]
func (ic *ItemController) DeleteItem(c *gin.Context) {
	if err := ic.service.DeleteItem(c.Request.Context(), c.Param("name"), splitKey(c.Param("key"))); err != nil {
		ic.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessageResponse("Item deleted successfully", ic.getCorrelationID(c)))
}

// Helper methods

func (ic *ItemController) sendError(c *gin.Context, err error) {
	correlationID := ic.getCorrelationID(c)
	if appErr, ok := utils.AsAppError(err); ok {
		c.JSON(utils.GetErrorStatus(appErr), response.ErrorResponseFromAppError(appErr, correlationID))
		return
	}
	c.JSON(http.StatusInternalServerError, response.InternalServerErrorResponse(correlationID))
}

func (ic *ItemController) getCorrelationID(c *gin.Context) string {
	if correlationID, exists := c.Get(middleware.CorrelationIDKey); exists {
		if id, ok := correlationID.(string); ok {
			return id
		}
	}
	return ""
}

// splitKey splits a composite primary-key path segment on commas
func splitKey(raw string) []string {
	return strings.Split(raw, ",")
}

// filterParams collects the remaining query parameters as exact-match column
// filters, leaving pagination parameters out
func filterParams(c *gin.Context) map[string]string {
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if key == "offset" || key == "limit" {
			continue
		}
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	return filters
}
