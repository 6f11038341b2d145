package api

// Minimal OpenAPI document served at /swagger.json.
const openAPISpec = `{
  "openapi": "3.0.0",
  "info": {
    "title": "Inventory Service API",
    "version": "1.0.0"
  },
  "paths": {
    "/health": {
      "get": {"summary": "Health check", "responses": {"200": {"description": "Service is healthy"}}}
    },
    "/api/inventories": {
      "get": {
        "summary": "List inventories with optional quantity bounds",
        "parameters": [
          {"name": "page", "in": "query", "schema": {"type": "integer", "minimum": 0}},
          {"name": "size", "in": "query", "schema": {"type": "integer", "minimum": 1}},
          {"name": "minQuantity", "in": "query", "schema": {"type": "integer"}},
          {"name": "maxQuantity", "in": "query", "schema": {"type": "integer"}}
        ],
        "responses": {
          "200": {
            "description": "Page of inventories; X-Total-Count, X-Page-Number and X-Page-Size headers",
            "content": {"application/json": {"schema": {"type": "array", "items": {"$ref": "#/components/schemas/Inventory"}}}}
          },
          "400": {"$ref": "#/components/responses/Error"}
        }
      },
      "post": {
        "summary": "Create an inventory for a catalog product",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/InventoryRequest"}}}},
        "responses": {
          "201": {"description": "Created", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Inventory"}}}},
          "400": {"$ref": "#/components/responses/Error"},
          "404": {"$ref": "#/components/responses/Error"},
          "409": {"$ref": "#/components/responses/Error"},
          "503": {"$ref": "#/components/responses/Error"}
        }
      }
    },
    "/api/inventories/bulk": {
      "post": {
        "summary": "Create several inventories; the batch is validated before any write",
        "requestBody": {"content": {"application/json": {"schema": {"type": "array", "items": {"$ref": "#/components/schemas/InventoryRequest"}}}}},
        "responses": {
          "201": {"description": "Created"},
          "400": {"$ref": "#/components/responses/Error"},
          "404": {"$ref": "#/components/responses/Error"},
          "409": {"$ref": "#/components/responses/Error"}
        }
      }
    },
    "/api/inventories/{id}": {
      "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}}],
      "get": {"summary": "Get inventory by id", "responses": {"200": {"description": "Found"}, "404": {"$ref": "#/components/responses/Error"}}},
      "put": {
        "summary": "Replace an inventory",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/InventoryRequest"}}}},
        "responses": {"200": {"description": "Updated"}, "404": {"$ref": "#/components/responses/Error"}, "409": {"$ref": "#/components/responses/Error"}}
      },
      "delete": {"summary": "Delete an inventory", "responses": {"204": {"description": "Deleted"}, "404": {"$ref": "#/components/responses/Error"}}}
    },
    "/api/inventories/{id}/details": {
      "get": {
        "summary": "Inventory joined with catalog product details",
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}}],
        "responses": {"200": {"description": "Found"}, "404": {"$ref": "#/components/responses/Error"}, "503": {"$ref": "#/components/responses/Error"}}
      }
    },
    "/api/inventories/product/{productId}": {
      "get": {
        "summary": "Get inventory by product id",
        "parameters": [{"name": "productId", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}}],
        "responses": {"200": {"description": "Found"}, "404": {"$ref": "#/components/responses/Error"}}
      }
    },
    "/api/inventories/product/{productId}/quantity/{quantity}": {
      "patch": {
        "summary": "Set on-hand quantity",
        "parameters": [
          {"name": "productId", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}},
          {"name": "quantity", "in": "path", "required": true, "schema": {"type": "integer", "minimum": 0}}
        ],
        "responses": {"200": {"description": "Updated"}, "400": {"$ref": "#/components/responses/Error"}, "404": {"$ref": "#/components/responses/Error"}}
      }
    },
    "/api/inventories/product/{productId}/reserve/{quantity}": {
      "patch": {
        "summary": "Reserve units of a product",
        "parameters": [
          {"name": "productId", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}},
          {"name": "quantity", "in": "path", "required": true, "schema": {"type": "integer", "minimum": 1}}
        ],
        "responses": {
          "200": {"description": "Reserved"},
          "400": {"$ref": "#/components/responses/Error"},
          "404": {"$ref": "#/components/responses/Error"},
          "503": {"$ref": "#/components/responses/Error"}
        }
      }
    },
    "/api/inventories/category/{category}": {
      "get": {
        "summary": "Inventories of every product in a catalog category",
        "parameters": [{"name": "category", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "List"}, "503": {"$ref": "#/components/responses/Error"}}
      }
    },
    "/api/inventories/product-info/{productId}": {
      "get": {
        "summary": "Catalog product details",
        "parameters": [{"name": "productId", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}}],
        "responses": {"200": {"description": "Found"}, "404": {"$ref": "#/components/responses/Error"}, "503": {"$ref": "#/components/responses/Error"}}
      }
    }
  },
  "components": {
    "schemas": {
      "InventoryRequest": {
        "type": "object",
        "required": ["productId", "quantity"],
        "properties": {
          "inventoryId": {"type": "integer", "format": "int64"},
          "productId": {"type": "integer", "format": "int64"},
          "quantity": {"type": "integer", "minimum": 0},
          "reservedQuantity": {"type": "integer", "minimum": 0}
        }
      },
      "Inventory": {
        "type": "object",
        "properties": {
          "inventoryId": {"type": "integer", "format": "int64"},
          "productId": {"type": "integer", "format": "int64"},
          "quantity": {"type": "integer"},
          "reservedQuantity": {"type": "integer"},
          "availableQuantity": {"type": "integer"}
        }
      },
      "Error": {
        "type": "object",
        "properties": {
          "errorCode": {"type": "string"},
          "message": {"type": "string"},
          "details": {"type": "object"}
        }
      }
    },
    "responses": {
      "Error": {
        "description": "Error",
        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Error"}}}
      }
    }
  }
}`
