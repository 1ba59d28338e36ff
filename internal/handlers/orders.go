package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aqibcreates/teachreach-backend/internal/database"
	"github.com/aqibcreates/teachreach-backend/internal/models"
)

// CheckoutRequest is the order form. The service is looked up at checkout
// time and its title, image, and price are snapshotted onto the order.
type CheckoutRequest struct {
	ServiceID     string `json:"service_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	ZipCode       string `json:"zip_code"`
}

// CreateOrder places an order for the signed-in client.
func CreateOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ServiceID == "" || req.FirstName == "" || req.LastName == "" || req.Email == "" {
		http.Error(w, "Service, name, and email are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var service models.Service
	err := database.DB.Collection("services").FindOne(ctx, bson.M{"_id": req.ServiceID}).Decode(&service)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, "Service not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	var order models.Order
	err = database.PostgresDB.QueryRowContext(ctx,
		`INSERT INTO orders (client_id, service_id, first_name, last_name, email,
			street_address, city, zip_code, product_name, product_image, total_amount, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at`,
		sess.Account.ID, service.ID, req.FirstName, req.LastName, req.Email,
		req.StreetAddress, req.City, req.ZipCode, service.Title, service.Image,
		service.Price, models.OrderStatusActive,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		log.Printf("❌ Failed to create order: %v", err)
		http.Error(w, "Failed to place order", http.StatusInternalServerError)
		return
	}

	order.ClientID = sess.Account.ID
	order.ServiceID = service.ID
	order.FirstName = req.FirstName
	order.LastName = req.LastName
	order.Email = req.Email
	order.StreetAddress = req.StreetAddress
	order.City = req.City
	order.ZipCode = req.ZipCode
	order.ProductName = service.Title
	order.ProductImage = service.Image
	order.TotalAmount = service.Price
	order.Status = models.OrderStatusActive

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Order placed",
		"order":   order,
	})
}

// GetMyOrders returns the signed-in client's orders, newest first.
func GetMyOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := database.PostgresDB.QueryContext(ctx,
		`SELECT id, client_id, service_id, first_name, last_name, email,
			street_address, city, zip_code, product_name, product_image,
			total_amount, status, deliverables, created_at
		 FROM orders WHERE client_id = $1 ORDER BY created_at DESC`,
		sess.Account.ID,
	)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}

// AdminGetOrders lists all orders, optionally filtered by ?status=.
func AdminGetOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `SELECT id, client_id, service_id, first_name, last_name, email,
		street_address, city, zip_code, product_name, product_image,
		total_amount, status, deliverables, created_at
	 FROM orders`
	args := []interface{}{}

	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ValidStatus(models.OrderStatus(status)) {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := database.PostgresDB.QueryContext(ctx, query, args...)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}

// UpdateOrderRequest is the admin payload for moving an order forward.
type UpdateOrderRequest struct {
	Status       string `json:"status,omitempty"`
	Deliverables string `json:"deliverables,omitempty"`
}

// AdminUpdateOrder changes an order's status and/or attaches deliverables.
func AdminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "ID is required", http.StatusBadRequest)
		return
	}

	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status == "" && req.Deliverables == "" {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}
	if req.Status != "" && !models.ValidStatus(models.OrderStatus(req.Status)) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := database.PostgresDB.ExecContext(ctx,
		`UPDATE orders
		 SET status = COALESCE(NULLIF($1, ''), status),
		     deliverables = COALESCE(NULLIF($2, ''), deliverables)
		 WHERE id = $3`,
		req.Status, req.Deliverables, id,
	)
	if err != nil {
		log.Printf("❌ Failed to update order %s: %v", id, err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Order updated",
	})
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		var image, deliverables sql.NullString
		err := rows.Scan(&o.ID, &o.ClientID, &o.ServiceID, &o.FirstName, &o.LastName,
			&o.Email, &o.StreetAddress, &o.City, &o.ZipCode, &o.ProductName,
			&image, &o.TotalAmount, &o.Status, &deliverables, &o.CreatedAt)
		if err != nil {
			return nil, err
		}
		o.ProductImage = image.String
		o.Deliverables = deliverables.String
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
