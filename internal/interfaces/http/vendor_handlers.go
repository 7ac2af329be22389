package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// ListVendors handles GET /api/vendors
func (h *Handlers) ListVendors(c *gin.Context) {
	vendors, err := h.services.Vendors.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: vendors})
}

// GetVendor handles GET /api/vendors/:id
func (h *Handlers) GetVendor(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	vendor, err := h.services.Vendors.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: vendor})
}

// CreateVendor handles POST /api/vendors
func (h *Handlers) CreateVendor(c *gin.Context) {
	var vendor entity.Vendor
	if err := c.ShouldBindJSON(&vendor); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	vendor.ID = 0
	if err := h.services.Vendors.Create(c.Request.Context(), mustActor(c), &vendor); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: vendor})
}

// UpdateVendor handles PUT /api/vendors/:id
func (h *Handlers) UpdateVendor(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var vendor entity.Vendor
	if err := c.ShouldBindJSON(&vendor); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	vendor.ID = id
	if err := h.services.Vendors.Update(c.Request.Context(), mustActor(c), &vendor); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: vendor})
}

// DeleteVendor handles DELETE /api/vendors/:id
func (h *Handlers) DeleteVendor(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.services.Vendors.Delete(c.Request.Context(), mustActor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// AddContact handles POST /api/vendors/:id/contacts
func (h *Handlers) AddContact(c *gin.Context) {
	vendorID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var contact entity.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	contact.ID = 0
	contact.VendorID = vendorID
	if err := h.services.Vendors.AddContact(c.Request.Context(), mustActor(c), &contact); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: contact})
}

// UpdateContact handles PUT /api/contacts/:id
func (h *Handlers) UpdateContact(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var contact entity.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	contact.ID = id
	if err := h.services.Vendors.UpdateContact(c.Request.Context(), mustActor(c), &contact); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: contact})
}

// DeleteContact handles DELETE /api/contacts/:id
func (h *Handlers) DeleteContact(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.services.Vendors.DeleteContact(c.Request.Context(), mustActor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}
