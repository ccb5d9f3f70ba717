package routes

import (
	"net/http"

	"github.com/14kear/council-voting/internal/handlers"
	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes mounts what needs no session: login, the public
// results and the live event stream.
func RegisterPublicRoutes(rg *gin.RouterGroup, voting *handlers.VotingHandler, auth *handlers.AuthHandler, realtime http.Handler) {
	{
		rg.POST("/auth/login", auth.Login)

		rg.GET("/public/bills", voting.GetPublicBills)
		rg.GET("/public/bills/:id", voting.GetPublicBill)

		rg.GET("/ws", gin.WrapH(realtime))
	}
}

// RegisterPrivateRoutes mounts session routes. Role checks happen in the
// services.
func RegisterPrivateRoutes(rg *gin.RouterGroup, voting *handlers.VotingHandler, users *handlers.UsersHandler, auth *handlers.AuthHandler) {
	{
		rg.GET("/auth/me", auth.Me)

		rg.GET("/bills", voting.GetBills)
		rg.POST("/bills", voting.CreateBill)
		rg.PUT("/bills/:id", voting.UpdateBill)
		rg.PATCH("/bills/:id/status", voting.SetBillStatus)
		rg.DELETE("/bills/:id", voting.DeleteBill)

		rg.GET("/councilor/bills", voting.GetCouncilorBills)
		rg.POST("/councilor/bills/:id/vote", voting.CastVote)

		rg.GET("/telao/bills", voting.GetTelaoBills)
		rg.GET("/telao/bills/:id/votes", voting.GetTelaoVotes)

		rg.POST("/export", voting.Export)

		rg.GET("/users", users.GetUsers)
		rg.POST("/users", users.CreateUser)
		rg.PUT("/users/:id", users.UpdateUser)
		rg.DELETE("/users/:id", users.DeleteUser)
	}
}
